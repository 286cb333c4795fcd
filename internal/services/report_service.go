package services

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/civix-app/civix-server/internal/apperr"
	"github.com/civix-app/civix-server/internal/dto"
	"github.com/civix-app/civix-server/internal/feed"
	"github.com/civix-app/civix-server/internal/geo"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/civix-app/civix-server/internal/store"
	"github.com/civix-app/civix-server/internal/tags"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type ReportService struct {
	reports   store.ReportStore
	admins    *AdminPolicy
	compiler  *feed.Compiler
	assembler *feed.Assembler
	trending  *tags.TrendingCache
}

func NewReportService(reports store.ReportStore, admins *AdminPolicy, following feed.FollowingResolver, trending *tags.TrendingCache) *ReportService {
	return &ReportService{
		reports:   reports,
		admins:    admins,
		compiler:  feed.NewCompiler(following),
		assembler: feed.NewAssembler(reports),
		trending:  trending,
	}
}

func (s *ReportService) Create(ctx context.Context, owner uuid.UUID, req *dto.CreateReportRequest) (*models.Report, error) {
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if err := validateText(title, description); err != nil {
		return nil, err
	}
	if description == "" {
		return nil, apperr.Validation("description is required")
	}
	if strings.TrimSpace(req.Category) == "" {
		return nil, apperr.Validation("category is required")
	}
	category, ok := models.ParseCategory(req.Category)
	if !ok {
		return nil, apperr.Validation("unknown category %q", req.Category)
	}
	if err := validateLocation(req.Location); err != nil {
		return nil, err
	}

	r := &models.Report{
		Title:       title,
		Description: description,
		Category:    category,
		Status:      models.StatusPending,
		Tags:        tags.Extract(description),
		ImageURL:    req.ImageURL,
		Location:    req.Location,
		UserID:      owner,
		Comments:    datatypes.JSONSlice[models.Comment]{},
	}
	if err := s.reports.CreateReport(ctx, r); err != nil {
		return nil, err
	}
	s.trending.Invalidate()
	return r, nil
}

func (s *ReportService) Get(ctx context.Context, id uuid.UUID) (*models.Report, error) {
	r, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return nil, err
	}
	one := []models.Report{*r}
	if err := attachOwners(ctx, s.reports, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// Update applies the fields present in req. Changing the description
// recomputes the tag set from scratch.
func (s *ReportService) Update(ctx context.Context, actor, id uuid.UUID, req *dto.UpdateReportRequest) (*models.Report, error) {
	var u store.ReportUpdate

	if req.Title != nil {
		t := strings.TrimSpace(*req.Title)
		u.Title = &t
	}
	if req.Description != nil {
		d := strings.TrimSpace(*req.Description)
		if d == "" {
			return nil, apperr.Validation("description cannot be empty")
		}
		u.Description = &d
		u.Tags = tags.Extract(d)
	}
	if err := validateText(deref(u.Title), deref(u.Description)); err != nil {
		return nil, err
	}
	if req.Category != nil {
		c, ok := models.ParseCategory(*req.Category)
		if !ok {
			return nil, apperr.Validation("unknown category %q", *req.Category)
		}
		u.Category = &c
	}
	if req.Status != nil {
		st, ok := models.ParseStatus(*req.Status)
		if !ok {
			return nil, apperr.Validation("unknown status %q", *req.Status)
		}
		u.Status = &st
	}
	if req.Location != nil {
		if err := validateLocation(*req.Location); err != nil {
			return nil, err
		}
		u.Location = req.Location
	}
	u.ImageURL = req.ImageURL

	if err := s.authorize(ctx, actor, id); err != nil {
		return nil, err
	}
	r, err := s.reports.UpdateReport(ctx, id, u)
	if err != nil {
		return nil, err
	}
	if u.Tags != nil {
		s.trending.Invalidate()
	}
	return r, nil
}

func (s *ReportService) Delete(ctx context.Context, actor, id uuid.UUID) error {
	if err := s.authorize(ctx, actor, id); err != nil {
		return err
	}
	if err := s.reports.DeleteReport(ctx, id); err != nil {
		return err
	}
	s.trending.Invalidate()
	return nil
}

// SetVerified marks a report as official. Callers are admins.
func (s *ReportService) SetVerified(ctx context.Context, id uuid.UUID, verified bool) (*models.Report, error) {
	return s.reports.UpdateReport(ctx, id, store.ReportUpdate{IsVerified: &verified})
}

func (s *ReportService) Feed(ctx context.Context, p feed.Params) (*feed.Result, error) {
	plan, err := s.compiler.Compile(ctx, p)
	if err != nil {
		return nil, err
	}
	res, err := s.assembler.Assemble(ctx, plan)
	if err != nil {
		return nil, err
	}
	if err := attachOwners(ctx, s.reports, res.Data); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *ReportService) Trending(ctx context.Context) ([]tags.TagCount, error) {
	return s.trending.Get(ctx)
}

// authorize allows the report owner and admins.
func (s *ReportService) authorize(ctx context.Context, actor, id uuid.UUID) error {
	r, err := s.reports.GetReport(ctx, id)
	if err != nil {
		return err
	}
	if r.UserID == actor {
		return nil
	}
	admin, err := s.admins.IsAdmin(ctx, actor)
	if err != nil && !errors.Is(err, apperr.ErrNotFound) {
		return err
	}
	if !admin {
		return apperr.Forbidden("Only the owner or an admin can modify this report")
	}
	return nil
}

func validateText(title, description string) error {
	if utf8.RuneCountInString(title) > models.MaxTitleLength {
		return apperr.Validation("title must be at most %d characters", models.MaxTitleLength)
	}
	if utf8.RuneCountInString(description) > models.MaxDescriptionLength {
		return apperr.Validation("description must be at most %d characters", models.MaxDescriptionLength)
	}
	return nil
}

func validateLocation(l models.Location) error {
	if !l.HasPoint() {
		return nil
	}
	lng, lat := l.Point()
	if !(geo.Point{Lng: lng, Lat: lat}).Valid() {
		return apperr.Validation("location coordinates are out of range")
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
