package audit

import (
	"bytes"
	"context"
	"fmt"
	"html"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// PDFExporter wraps Gotenberg interactions for timeline exports.
type PDFExporter struct {
	Endpoint string
	Client   *http.Client
}

// RenderTimeline sends the filtered timeline to Gotenberg and returns the
// PDF bytes.
func (p *PDFExporter) RenderTimeline(ctx context.Context, filters TimelineFilters, rows []TimelineRow) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("pdf exporter not initialised")
	}
	endpoint := strings.TrimRight(p.Endpoint, "/")
	if endpoint == "" {
		return nil, fmt.Errorf("gotenberg endpoint required")
	}
	client := p.Client
	if client == nil {
		client = http.DefaultClient
	}

	doc := timelineHTML(filters, rows)
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("files", "audit.html")
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(part, doc); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"/forms/chromium/convert/html", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("gotenberg response %d: %s", resp.StatusCode, string(data))
	}

	return io.ReadAll(resp.Body)
}

func timelineHTML(filters TimelineFilters, rows []TimelineRow) string {
	var b strings.Builder
	b.WriteString("<html><head><meta charset=\"utf-8\"><style>")
	b.WriteString("body{font-family:sans-serif;margin:24px;}h1{font-size:20px;}p{color:#555;}table{width:100%;border-collapse:collapse;}th,td{border:1px solid #ddd;padding:6px;text-align:left;}th{background:#f5f5f5;}td.meta{font-family:monospace;font-size:11px;}")
	b.WriteString("</style></head><body>")
	b.WriteString("<h1>Audit Timeline</h1>")
	b.WriteString(fmt.Sprintf("<p>%s to %s, %d events</p>",
		filters.From.UTC().Format("2006-01-02"),
		filters.To.UTC().Format("2006-01-02"),
		len(rows)))

	b.WriteString("<table><thead><tr><th>When</th><th>Actor</th><th>Action</th><th>Entity</th><th>Details</th></tr></thead><tbody>")
	for _, row := range rows {
		b.WriteString("<tr><td>")
		b.WriteString(row.At.UTC().Format(time.RFC3339))
		b.WriteString("</td><td>")
		b.WriteString(strconv.FormatInt(row.ActorID, 10))
		b.WriteString("</td><td>")
		b.WriteString(html.EscapeString(row.Action))
		b.WriteString("</td><td>")
		b.WriteString(html.EscapeString(row.Entity + " " + row.EntityID))
		b.WriteString("</td><td class=\"meta\">")
		b.WriteString(html.EscapeString(string(row.Meta)))
		b.WriteString("</td></tr>")
	}
	b.WriteString("</tbody></table></body></html>")
	return b.String()
}
