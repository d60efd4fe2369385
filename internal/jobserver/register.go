package jobserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_apply/internal/engine"
	"github.com/anatolykoptev/go_apply/internal/engine/ats"
	"github.com/anatolykoptev/go_apply/internal/engine/jobs"
	"github.com/anatolykoptev/go_apply/internal/engine/rules"
	"github.com/anatolykoptev/go_apply/internal/engine/tracker"
	"github.com/anatolykoptev/go_apply/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// errNoTracker is returned by tracker tools when no store is configured.
var errNoTracker = errors.New("application tracker is not configured")

// Deps carries the engines and the store shared by every tool.
type Deps struct {
	Extractor *jobs.Extractor
	Parser    *jobs.ResumeParser
	Tailorer  *jobs.Tailorer
	Scorer    *ats.Scorer
	Salary    *rules.SalaryReference
	Store     *tracker.Store // nil disables the tracker tools
}

// NewDeps builds the engines from loaded rule files. Salary starts as the
// embedded reference.
func NewDeps(atsRules *rules.ATSRules, vocab *rules.Vocabulary, store *tracker.Store) (*Deps, error) {
	scorer, err := ats.NewScorer(atsRules)
	if err != nil {
		return nil, err
	}
	return &Deps{
		Extractor: jobs.NewExtractor(vocab),
		Parser:    jobs.NewResumeParser(vocab),
		Tailorer:  jobs.NewTailorer(vocab),
		Scorer:    scorer,
		Salary:    rules.DefaultSalaryReference(),
		Store:     store,
	}, nil
}

// RegisterTools registers every go_apply tool on the server and returns how
// many were added.
func RegisterTools(server *mcp.Server, d *Deps) int {
	registrations := []func(*mcp.Server){
		d.registerJDAnalyze,
		d.registerJDFetch,
		d.registerKeywordMatch,
		d.registerJobRank,
		d.registerATSScore,
		d.registerATSDetect,
		d.registerCVTailor,
		d.registerCoverLetter,
		d.registerHiringMessage,
		d.registerSalaryEstimate,
		d.registerResumeQuality,
		d.registerSTARAnswer,
		d.registerSTARTemplate,
		d.registerApplicationPrepare,
		d.registerApplicationAdd,
		d.registerApplicationGet,
		d.registerApplicationList,
		d.registerApplicationUpdate,
		d.registerApplicationDelete,
		d.registerApplicationStats,
		d.registerApplicationFollowUps,
		d.registerApplicationExport,
		d.registerApplicationCVVersions,
		d.registerChecklistGet,
		d.registerChecklistMark,
	}
	for _, register := range registrations {
		register(server)
	}
	return len(registrations)
}

// analyze runs the extractor with caching keyed by the posting text.
func (d *Deps) analyze(ctx context.Context, text string) *jobs.Analysis {
	key := engine.CacheKey("jd_analyze", text)
	if a, ok := engine.CacheLoadJSON[jobs.Analysis](ctx, key); ok {
		return &a
	}
	a := d.Extractor.Analyze(text)
	engine.IncrAnalyses()
	engine.CacheStoreJSON(ctx, key, *a)
	return a
}

// jobText resolves a job description from text, a file or a URL. The page is
// returned when one was fetched.
func jobText(ctx context.Context, text, path, pageURL string) (string, *engine.Page, error) {
	if strings.TrimSpace(text) != "" || path != "" || pageURL == "" {
		t, err := toolutil.LoadText(text, path, "job description")
		return t, nil, err
	}
	page, err := engine.FetchPage(ctx, pageURL)
	if err != nil {
		return "", nil, err
	}
	return capContent(page.Markdown), page, nil
}

// capContent bounds fetched text to MAX_CONTENT_CHARS runes.
func capContent(s string) string {
	if n := engine.Cfg.MaxContentChars; n > 0 {
		return engine.TruncateRunes(s, n, "")
	}
	return s
}

func (d *Deps) resume(text, path string) (*jobs.Resume, string, error) {
	t, err := toolutil.LoadText(text, path, "résumé")
	if err != nil {
		return nil, "", err
	}
	return d.Parser.Parse(t), t, nil
}

func (d *Deps) store() (*tracker.Store, error) {
	if d.Store == nil {
		return nil, errNoTracker
	}
	return d.Store, nil
}

// toolError prefixes err with the tool name.
func toolError(tool string, err error) error {
	return fmt.Errorf("%s: %w", tool, err)
}
