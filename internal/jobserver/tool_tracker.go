package jobserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_apply/internal/engine"
	"github.com/anatolykoptev/go_apply/internal/engine/jobs"
	"github.com/anatolykoptev/go_apply/internal/engine/tracker"
	"github.com/anatolykoptev/go_apply/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func (d *Deps) registerApplicationAdd(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_add",
		Description: "Add a job application to the tracker. Status: saved, applied (default), screening, interview, offer, rejected, withdrawn. Dates are YYYY-MM-DD; date_applied defaults to today. Returns the stored application with its ID.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input tracker.NewApplication) (*mcp.CallToolResult, *tracker.Application, error) {
		store, err := d.store()
		if err != nil {
			return nil, nil, toolError("application_add", err)
		}
		app, err := store.Add(ctx, input)
		engine.TrackWrite(err)
		if err != nil {
			return nil, nil, toolError("application_add", err)
		}
		slog.Info("application_add", slog.Int64("id", app.ID), slog.String("status", string(app.Status)))
		return nil, app, nil
	})
}

func (d *Deps) registerApplicationGet(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_get",
		Description: "Get one tracked application with its latest job description, extracted keywords and CV versions.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.applicationGet)
}

func (d *Deps) applicationGet(ctx context.Context, _ *mcp.CallToolRequest, input ApplicationIDInput) (*mcp.CallToolResult, *ApplicationDetail, error) {
	if err := toolutil.Validate(input); err != nil {
		return nil, nil, toolError("application_get", err)
	}
	store, err := d.store()
	if err != nil {
		return nil, nil, toolError("application_get", err)
	}
	app, err := store.Get(ctx, input.ID)
	if err != nil {
		return nil, nil, toolError("application_get", err)
	}
	out := &ApplicationDetail{Application: app}

	jd, err := store.LatestJobDescription(ctx, input.ID)
	switch {
	case errors.Is(err, tracker.ErrNotFound):
	case err != nil:
		return nil, nil, toolError("application_get", err)
	default:
		out.JobDescription = jd
		if out.Keywords, err = store.Keywords(ctx, jd.ID); err != nil {
			return nil, nil, toolError("application_get", err)
		}
	}
	if out.CVVersions, err = store.CVVersions(ctx, input.ID); err != nil {
		return nil, nil, toolError("application_get", err)
	}
	for i := range out.CVVersions {
		out.CVVersions[i].Content = ""
	}
	return nil, out, nil
}

func (d *Deps) registerApplicationList(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_list",
		Description: "List tracked applications, newest first. Optionally filter by status; limit defaults to 50 (max 500). Returns the total count matching the filter.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input tracker.ListFilter) (*mcp.CallToolResult, *ApplicationListOutput, error) {
		store, err := d.store()
		if err != nil {
			return nil, nil, toolError("application_list", err)
		}
		apps, total, err := store.List(ctx, input)
		if err != nil {
			return nil, nil, toolError("application_list", err)
		}
		return nil, &ApplicationListOutput{Applications: apps, Total: total}, nil
	})
}

func (d *Deps) registerApplicationUpdate(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_update",
		Description: "Update a tracked application's status, notes, follow-up date or interview date by ID. Omitted fields are unchanged; an empty date clears it.",
	}, d.applicationUpdate)
}

func (d *Deps) applicationUpdate(ctx context.Context, _ *mcp.CallToolRequest, input ApplicationUpdateInput) (*mcp.CallToolResult, *tracker.Application, error) {
	if err := toolutil.Validate(input); err != nil {
		return nil, nil, toolError("application_update", err)
	}
	store, err := d.store()
	if err != nil {
		return nil, nil, toolError("application_update", err)
	}
	app, err := store.Update(ctx, input.ID, tracker.Update{
		Status:        input.Status,
		Notes:         input.Notes,
		FollowUpDate:  input.FollowUpDate,
		InterviewDate: input.InterviewDate,
	})
	engine.TrackWrite(err)
	if err != nil {
		return nil, nil, toolError("application_update", err)
	}
	return nil, app, nil
}

func (d *Deps) registerApplicationDelete(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_delete",
		Description: "Delete a tracked application with its job descriptions, keywords, CV versions, cover letters and checklist progress.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ApplicationIDInput) (*mcp.CallToolResult, *DeleteOutput, error) {
		if err := toolutil.Validate(input); err != nil {
			return nil, nil, toolError("application_delete", err)
		}
		store, err := d.store()
		if err != nil {
			return nil, nil, toolError("application_delete", err)
		}
		err = store.Delete(ctx, input.ID)
		engine.TrackWrite(err)
		if err != nil {
			return nil, nil, toolError("application_delete", err)
		}
		return nil, &DeleteOutput{ID: input.ID, Deleted: true}, nil
	})
}

func (d *Deps) registerApplicationStats(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_stats",
		Description: "Application pipeline statistics: totals by status, response rate, interview rate (saved postings excluded), applications this week, and a weekly trend (default 4 weeks).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.applicationStats)
}

func (d *Deps) applicationStats(ctx context.Context, _ *mcp.CallToolRequest, input StatsInput) (*mcp.CallToolResult, *StatsOutput, error) {
	if err := toolutil.Validate(input); err != nil {
		return nil, nil, toolError("application_stats", err)
	}
	store, err := d.store()
	if err != nil {
		return nil, nil, toolError("application_stats", err)
	}
	st, err := store.Stats(ctx)
	if err != nil {
		return nil, nil, toolError("application_stats", err)
	}
	trend, err := store.WeeklyTrend(ctx, input.Weeks)
	if err != nil {
		return nil, nil, toolError("application_stats", err)
	}
	return nil, &StatsOutput{Stats: st, Trend: trend}, nil
}

func (d *Deps) registerApplicationFollowUps(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_followups",
		Description: "List open applications whose follow-up date is today or earlier, oldest first.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ FollowUpsInput) (*mcp.CallToolResult, *FollowUpsOutput, error) {
		store, err := d.store()
		if err != nil {
			return nil, nil, toolError("application_followups", err)
		}
		due, err := store.DueFollowUps(ctx)
		if err != nil {
			return nil, nil, toolError("application_followups", err)
		}
		return nil, &FollowUpsOutput{Due: due, Count: len(due)}, nil
	})
}

func (d *Deps) registerApplicationExport(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_export",
		Description: "Export all tracked applications to an Excel workbook with an Applications sheet and a Summary sheet. Returns the file path.",
	}, d.applicationExport)
}

func (d *Deps) applicationExport(ctx context.Context, _ *mcp.CallToolRequest, input ExportInput) (*mcp.CallToolResult, *ExportOutput, error) {
	store, err := d.store()
	if err != nil {
		return nil, nil, toolError("application_export", err)
	}
	path := exportPath(input.FileName)
	rows, err := store.ExportExcel(ctx, path)
	if err != nil {
		return nil, nil, toolError("application_export", err)
	}
	slog.Info("application_export", slog.String("path", path), slog.Int("rows", rows))
	return nil, &ExportOutput{Path: path, Rows: rows}, nil
}

// timeNow is replaced in tests.
var timeNow = time.Now

// exportPath resolves the workbook location; bare names get an .xlsx suffix.
func exportPath(name string) string {
	if name == "" {
		name = fmt.Sprintf("applications_%s.xlsx", timeNow().Format("2006-01-02"))
	}
	if !strings.HasSuffix(strings.ToLower(name), ".xlsx") {
		name += ".xlsx"
	}
	return engine.Cfg.ExportPath(name)
}

func (d *Deps) registerApplicationCVVersions(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "application_cv_versions",
		Description: "List the CV versions generated for a tracked application, newest first, with ATS score, keyword coverage and content.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ApplicationIDInput) (*mcp.CallToolResult, *CVVersionsOutput, error) {
		if err := toolutil.Validate(input); err != nil {
			return nil, nil, toolError("application_cv_versions", err)
		}
		store, err := d.store()
		if err != nil {
			return nil, nil, toolError("application_cv_versions", err)
		}
		versions, err := store.CVVersions(ctx, input.ID)
		if err != nil {
			return nil, nil, toolError("application_cv_versions", err)
		}
		return nil, &CVVersionsOutput{Versions: versions}, nil
	})
}

// --- checklists ---

func (d *Deps) registerChecklistGet(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "checklist_get",
		Description: "Get the pre_application or final_submission checklist with progress for an application (or global progress when no application ID is given).",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, d.checklistGet)
}

func (d *Deps) checklistGet(ctx context.Context, _ *mcp.CallToolRequest, input ChecklistInput) (*mcp.CallToolResult, *jobs.Checklist, error) {
	if err := toolutil.Validate(input); err != nil {
		return nil, nil, toolError("checklist_get", err)
	}
	done := map[string]bool{}
	if d.Store != nil {
		var err error
		if done, err = d.Store.ChecklistProgress(ctx, input.ApplicationID, input.Kind); err != nil {
			return nil, nil, toolError("checklist_get", err)
		}
	}
	c, err := jobs.GetChecklist(input.Kind, done)
	if err != nil {
		return nil, nil, toolError("checklist_get", err)
	}
	return nil, c, nil
}

func (d *Deps) registerChecklistMark(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "checklist_mark",
		Description: "Mark a checklist item done (or not done) for an application or globally. Returns the updated checklist.",
	}, d.checklistMark)
}

func (d *Deps) checklistMark(ctx context.Context, req *mcp.CallToolRequest, input ChecklistMarkInput) (*mcp.CallToolResult, *jobs.Checklist, error) {
	if err := toolutil.Validate(input); err != nil {
		return nil, nil, toolError("checklist_mark", err)
	}
	if !jobs.ValidChecklistItem(input.Kind, input.ItemID) {
		return nil, nil, toolError("checklist_mark", fmt.Errorf("unknown item %q in %s checklist", input.ItemID, input.Kind))
	}
	store, err := d.store()
	if err != nil {
		return nil, nil, toolError("checklist_mark", err)
	}
	done := input.Done == nil || *input.Done
	err = store.SetChecklistItem(ctx, input.ApplicationID, input.Kind, input.ItemID, done)
	engine.TrackWrite(err)
	if err != nil {
		return nil, nil, toolError("checklist_mark", err)
	}
	return d.checklistGet(ctx, req, ChecklistInput{Kind: input.Kind, ApplicationID: input.ApplicationID})
}
