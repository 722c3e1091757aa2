package output

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"github.com/abdul-hamid-achik/hitblock/packages/core/headers"
	"github.com/abdul-hamid-achik/hitblock/packages/core/runner"
	"github.com/abdul-hamid-achik/hitblock/packages/http"
	"github.com/tidwall/gjson"
	"github.com/tidwall/pretty"
)

// JSONOutput is one run.
type JSONOutput struct {
	File      string            `json:"file,omitempty"`
	Line      int               `json:"line"`
	Request   *JSONRequest      `json:"request,omitempty"`
	Response  *JSONResponse     `json:"response,omitempty"`
	History   []JSONResponse    `json:"history,omitempty"`
	Cookies   map[string]string `json:"cookies,omitempty"`
	Templates []JSONTemplate    `json:"templates,omitempty"`
	Errors    []string          `json:"errors,omitempty"`
	Duration  float64           `json:"duration"`
	Time      string            `json:"time"`
}

type JSONHeader struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type JSONRequest struct {
	Method  string       `json:"method"`
	URL     string       `json:"url"`
	Headers []JSONHeader `json:"headers,omitempty"`
	Body    string       `json:"body,omitempty"`
	Raw     string       `json:"raw,omitempty"`
}

type JSONResponse struct {
	URL        string       `json:"url"`
	StatusCode int          `json:"statusCode"`
	Reason     string       `json:"reason"`
	Headers    []JSONHeader `json:"headers,omitempty"`
	// Body is embedded as JSON when the response declares and holds JSON,
	// otherwise it is a string.
	Body    any         `json:"body,omitempty"`
	Size    int         `json:"size"`
	Timings JSONTimings `json:"timings"`
}

// JSONTimings are milliseconds.
type JSONTimings struct {
	Connect float64 `json:"connect"`
	Headers float64 `json:"headers"`
	Total   float64 `json:"total"`
}

type JSONTemplate struct {
	Name  string   `json:"name"`
	After int      `json:"after"`
	Lines []string `json:"lines"`
}

// JSONFormatter writes one JSON document per run.
type JSONFormatter struct {
	writer io.Writer
	pretty bool
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func JSONWithWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

// JSONWithPretty indents the output. The default is one line per run.
func JSONWithPretty(p bool) JSONOption {
	return func(f *JSONFormatter) {
		f.pretty = p
	}
}

func (f *JSONFormatter) FormatResult(result *runner.RunResult) {
	out := JSONOutput{
		File:     result.File,
		Duration: float64(result.Duration.Milliseconds()),
		Time:     time.Now().Format(time.RFC3339),
	}

	if result.Block != nil {
		out.Line = result.Block.Start + 1
	}

	if req := result.Request; req != nil {
		out.Request = &JSONRequest{
			Method:  req.Method,
			URL:     req.URL,
			Headers: jsonHeaders(req.Headers),
			Body:    string(req.Body),
		}
	}

	if res := result.Result; res != nil {
		if out.Request != nil {
			out.Request.Raw = string(res.Raw)
		}
		out.Response = jsonResponse(res.Response)
		for _, hop := range res.History {
			out.History = append(out.History, *jsonResponse(hop))
		}
		if res.Cookies != nil && res.Cookies.Len() > 0 {
			out.Cookies = res.Cookies.Values()
		}
	}

	for _, ins := range result.Insertions {
		out.Templates = append(out.Templates, JSONTemplate{
			Name:  ins.Template,
			After: ins.After + 1,
			Lines: ins.Lines,
		})
	}

	if result.TemplateErrors != nil {
		for _, err := range templateErrors(result.TemplateErrors) {
			out.Errors = append(out.Errors, err.Error())
		}
	}

	f.write(out)
}

func (f *JSONFormatter) FormatError(err error) {
	f.write(map[string]string{
		"error": err.Error(),
		"time":  time.Now().Format(time.RFC3339),
	})
}

func (f *JSONFormatter) FormatHeader(version string) {
	// No header needed for JSON output
}

func (f *JSONFormatter) write(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		data, _ = json.Marshal(map[string]string{"error": err.Error()})
	}
	if f.pretty {
		data = pretty.PrettyOptions(data, &pretty.Options{Width: 80, Indent: "  "})
	} else {
		data = append(data, '\n')
	}
	f.writer.Write(data)
}

func jsonHeaders(h *headers.HeaderSet) []JSONHeader {
	entries := h.Entries()
	if len(entries) == 0 {
		return nil
	}
	out := make([]JSONHeader, len(entries))
	for i, e := range entries {
		out[i] = JSONHeader{Name: e.Name, Value: e.Value}
	}
	return out
}

func jsonResponse(resp *http.Response) *JSONResponse {
	out := &JSONResponse{
		URL:        resp.URL,
		StatusCode: resp.StatusCode,
		Reason:     resp.Reason,
		Headers:    jsonHeaders(resp.Headers),
		Size:       resp.Size(),
		Timings: JSONTimings{
			Connect: float64(resp.Timings.Connect.Milliseconds()),
			Headers: float64(resp.Timings.Headers.Milliseconds()),
			Total:   float64(resp.Timings.Total.Milliseconds()),
		},
	}

	switch {
	case len(resp.Body) == 0:
	case resp.IsJSON() && gjson.ValidBytes(resp.Body):
		out.Body = json.RawMessage(resp.Body)
	default:
		out.Body = string(resp.Body)
	}

	return out
}
