package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/argus-iam/argus/testing"
)

type fakeUserRepo struct {
	nextID  int64
	byEmail map[string]User
	hashes  map[string]string
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byEmail: make(map[string]User), hashes: make(map[string]string)}
}

func (f *fakeUserRepo) Create(ctx context.Context, user User, passwordHash string) (User, error) {
	if _, ok := f.byEmail[user.Email]; ok {
		return User{}, ErrDuplicateEmail
	}
	f.nextID++
	user.ID = f.nextID
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	f.byEmail[user.Email] = user
	f.hashes[user.Email] = passwordHash
	return user, nil
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id int64) (User, error) {
	for _, user := range f.byEmail {
		if user.ID == id {
			return user, nil
		}
	}
	return User{}, ErrNotFound
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (User, error) {
	user, ok := f.byEmail[email]
	if !ok {
		return User{}, ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) List(ctx context.Context, limit, offset int) ([]User, int, error) {
	out := make([]User, 0, len(f.byEmail))
	for _, user := range f.byEmail {
		out = append(out, user)
	}
	return out, len(out), nil
}

func TestCreateUserHashesPassword(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "ops@argus.local",
		Name:     "Ops Admin",
		Password: "str0ngpassword",
	}, 1)
	require.NoError(t, err)

	assert.Equal(t, "ops@argus.local", user.Email)
	assert.True(t, user.IsActive)
	assert.Equal(t, int64(1), user.CreatedBy)

	hash := repo.hashes["ops@argus.local"]
	require.NotEmpty(t, hash)
	assert.NotEqual(t, "str0ngpassword", hash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("str0ngpassword")))
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "ops@argus.local",
		Name:     "Ops Admin",
		Password: "str0ngpassword",
	}, 1)
	require.NoError(t, err)

	_, err = svc.Create(context.Background(), CreateUserRequest{
		Email:    "ops@argus.local",
		Name:     "Someone Else",
		Password: "otherpassword",
	}, 2)
	require.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestGetUnknownUser(t *testing.T) {
	svc := NewService(newFakeUserRepo())

	_, err := svc.Get(context.Background(), 404)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListUsersDefaultsLimit(t *testing.T) {
	repo := newFakeUserRepo()
	svc := NewService(repo)

	for _, email := range []string{"a@argus.local", "b@argus.local"} {
		_, err := svc.Create(context.Background(), CreateUserRequest{Email: email, Name: "User", Password: "str0ngpassword"}, 1)
		require.NoError(t, err)
	}

	list, pagination, err := svc.List(context.Background(), ListUsersRequest{})
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, 20, pagination.PerPage)
	assert.Equal(t, 2, pagination.Total)
}
