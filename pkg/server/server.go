// package server serves rendered digests over http.
package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/open-sauced/docs-digest/pkg/common"
	"github.com/open-sauced/docs-digest/pkg/digest"
	"github.com/open-sauced/docs-digest/pkg/report"
	"github.com/open-sauced/docs-digest/pkg/validator"
)

// DigestServer provides a leveled logger for use during serving requests
// and the Digester every request runs against.
type DigestServer struct {
	Logger   *zap.SugaredLogger
	Digester *digest.Digester

	// now returns the current time; requests without a month report on
	// the month before it.
	now func() time.Time
}

// NewDigestServer returns a DigestServer which uses the provided Digester
// for every request
func NewDigestServer(d *digest.Digester, l *zap.SugaredLogger) *DigestServer {
	return &DigestServer{
		Logger:   l,
		Digester: d,
		now:      time.Now,
	}
}

// Handler returns the routes of the server.
func (p *DigestServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/digest", p.handleRequest)
	mux.HandleFunc("/ping", p.pingHandler)
	return mux
}

// Run starts the http server on the provided port
func (p *DigestServer) Run(serverPort string) error {
	//nolint:errcheck
	defer p.Logger.Sync()
	p.Logger.Infof("Starting server on port %s", serverPort)
	return http.ListenAndServe(fmt.Sprintf(":%s", serverPort), p.Handler())
}

func (p *DigestServer) handleRequest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		p.Logger.Errorf("Received request with invalid method: %s", r.Method)
		http.Error(w, "Invalid request method, expected get", http.StatusMethodNotAllowed)
		return
	}

	opts, err := p.parseOptions(r)
	if err != nil {
		p.Logger.Errorf("Could not parse request query: %s with error: %v", r.URL.RawQuery, err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	rep, err := p.Digester.Run(r.Context(), opts)
	if err != nil {
		var cfgErr *common.ConfigurationError
		if errors.As(err, &cfgErr) {
			p.Logger.Errorf("Invalid digest request: %s with error: %v", r.URL.RawQuery, err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		p.Logger.Errorf("Could not build digest: %s with error: %v", r.URL.RawQuery, err)
		http.Error(w, "Could not build digest", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	if _, err := w.Write([]byte(report.Render(rep))); err != nil {
		p.Logger.Errorf("Could not write digest response: %v", err)
	}
}

func (p *DigestServer) pingHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		p.Logger.Errorf("Could not connect to /ping endpoint: %v", err.Error())
		http.Error(w, "Could not connect, server is down", http.StatusInternalServerError)
	}
}

// parseOptions reads month, category, products and include-trivial from the
// query string. category and products may be repeated or comma separated.
func (p *DigestServer) parseOptions(r *http.Request) (digest.Options, error) {
	q := r.URL.Query()

	v := validator.New()
	validator.ValidateMonth(v, q.Get("month"))

	includeTrivial := false
	if raw := q.Get("include-trivial"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		v.CheckConstraint(err == nil, "include-trivial", "must be true or false")
		includeTrivial = parsed
	}

	if err := v.Err(); err != nil {
		return digest.Options{}, err
	}

	month := common.PreviousMonth(p.now().UTC())
	if raw := q.Get("month"); raw != "" {
		parsed, err := common.ParseMonth(raw)
		if err != nil {
			return digest.Options{}, err
		}
		month = parsed
	}

	return digest.Options{
		Month:          month,
		Categories:     common.SplitList(q["category"]),
		Products:       common.SplitList(q["products"]),
		IncludeTrivial: includeTrivial,
	}, nil
}
