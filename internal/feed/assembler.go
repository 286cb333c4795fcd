package feed

import (
	"context"

	"github.com/civix-app/civix-server/internal/models"
)

// CandidateSource returns every report matching plan, in any order.
type CandidateSource interface {
	Candidates(ctx context.Context, plan *Plan) ([]models.Report, error)
}

type Result struct {
	Count int             `json:"count"`
	Data  []models.Report `json:"data"`
}

type Assembler struct {
	source CandidateSource
}

func NewAssembler(source CandidateSource) *Assembler {
	return &Assembler{source: source}
}

func (a *Assembler) Assemble(ctx context.Context, plan *Plan) (*Result, error) {
	if plan.Empty {
		return &Result{Count: 0, Data: []models.Report{}}, nil
	}

	reports, err := a.source.Candidates(ctx, plan)
	if err != nil {
		return nil, err
	}
	if reports == nil {
		reports = []models.Report{}
	}
	Rank(reports, plan.Sort)
	return &Result{Count: len(reports), Data: reports}, nil
}
