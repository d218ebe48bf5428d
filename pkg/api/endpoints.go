package api

import (
	"context"
	"fmt"

	"github.com/hazyhaar/returns-tracker/pkg/kit"
	"github.com/hazyhaar/returns-tracker/pkg/sheet"
	"github.com/hazyhaar/returns-tracker/pkg/track"
)

// Shared request/response types used by both HTTP and MCP transports.

type searchReq struct {
	Query string
}

type uploadReq struct {
	Data []byte
}

type searchResponse struct {
	Outcome sheet.Outcome `json:"outcome"`
	// On a miss, a few identifiers from the table help the operator spot
	// formatting problems with their query.
	SampleIMEIs []string `json:"sample_imeis,omitempty"`
}

type loadResponse struct {
	Report      *sheet.LoadReport `json:"report"`
	Diagnostics track.Diagnostics `json:"diagnostics"`
}

func searchEndpoint(tr *track.Tracker) kit.Endpoint {
	return func(_ context.Context, request any) (any, error) {
		req := request.(*searchReq)
		out := tr.Search(req.Query)
		resp := searchResponse{Outcome: out}
		if out.Kind == sheet.NotFound {
			resp.SampleIMEIs = tr.Diagnostics().SampleIMEIs
		}
		return resp, nil
	}
}

func refreshEndpoint(tr *track.Tracker) kit.Endpoint {
	return func(ctx context.Context, _ any) (any, error) {
		report := tr.Refresh(ctx)
		return loadResponse{Report: report, Diagnostics: tr.Diagnostics()}, nil
	}
}

func uploadEndpoint(tr *track.Tracker) kit.Endpoint {
	return func(ctx context.Context, request any) (any, error) {
		req := request.(*uploadReq)
		if len(req.Data) == 0 {
			return nil, fmt.Errorf("empty upload body")
		}
		report := tr.LoadBlob(ctx, req.Data)
		if report.Err != "" {
			return nil, fmt.Errorf("upload rejected: %s", report.Err)
		}
		return loadResponse{Report: report, Diagnostics: tr.Diagnostics()}, nil
	}
}

func diagnosticsEndpoint(tr *track.Tracker) kit.Endpoint {
	return func(_ context.Context, _ any) (any, error) {
		return tr.Diagnostics(), nil
	}
}
