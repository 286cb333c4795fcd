// Package memory is a process-local implementation of store.Store. A single
// mutex makes every operation atomic; returned values are copies.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/civix-app/civix-server/internal/apperr"
	"github.com/civix-app/civix-server/internal/feed"
	"github.com/civix-app/civix-server/internal/geo"
	"github.com/civix-app/civix-server/internal/models"
	"github.com/civix-app/civix-server/internal/store"
	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var _ store.Store = (*Store)(nil)

type bookmark struct {
	reportID uuid.UUID
	at       time.Time
}

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	reports map[uuid.UUID]*models.Report
	geo     *geo.Index

	users     map[uuid.UUID]*models.User
	byEmail   map[string]uuid.UUID
	bookmarks map[uuid.UUID][]bookmark
	following map[uuid.UUID][]uuid.UUID
	followers map[uuid.UUID][]uuid.UUID
}

func New() *Store {
	return &Store{
		now:       time.Now,
		reports:   make(map[uuid.UUID]*models.Report),
		geo:       geo.NewIndex(),
		users:     make(map[uuid.UUID]*models.User),
		byEmail:   make(map[string]uuid.UUID),
		bookmarks: make(map[uuid.UUID][]bookmark),
		following: make(map[uuid.UUID][]uuid.UUID),
		followers: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *Store) Ping(context.Context) error { return nil }

// Reports

func (s *Store) CreateReport(_ context.Context, r *models.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if _, ok := s.reports[r.ID]; ok {
		return apperr.Conflict("Report already exists")
	}
	now := s.now()
	r.CreatedAt, r.UpdatedAt = now, now
	if r.Status == "" {
		r.Status = models.StatusPending
	}
	if r.Tags == nil {
		r.Tags = datatypes.JSONSlice[string]{}
	}
	if r.Comments == nil {
		r.Comments = datatypes.JSONSlice[models.Comment]{}
	}

	stored := cloneReport(r)
	s.reports[r.ID] = stored
	s.index(stored)
	return nil
}

func (s *Store) GetReport(_ context.Context, id uuid.UUID) (*models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, reportNotFound()
	}
	return cloneReport(r), nil
}

func (s *Store) UpdateReport(_ context.Context, id uuid.UUID, u store.ReportUpdate) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, reportNotFound()
	}
	if u.Title != nil {
		r.Title = *u.Title
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	if u.Tags != nil {
		r.Tags = slices.Clone(u.Tags)
	}
	if u.Category != nil {
		r.Category = *u.Category
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
	if u.ImageURL != nil {
		r.ImageURL = *u.ImageURL
	}
	if u.Location != nil {
		r.Location = cloneLocation(*u.Location)
		s.index(r)
	}
	if u.IsVerified != nil {
		r.IsVerified = *u.IsVerified
	}
	r.UpdatedAt = s.now()
	return cloneReport(r), nil
}

func (s *Store) DeleteReport(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reports[id]; !ok {
		return reportNotFound()
	}
	delete(s.reports, id)
	s.geo.Remove(id)
	return nil
}

func (s *Store) Increment(_ context.Context, id uuid.UUID, counter store.Counter) (*models.Report, error) {
	if !counter.Valid() {
		return nil, apperr.Validation("unknown counter %q", counter)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, reportNotFound()
	}
	if counter == store.CounterShares {
		r.Shares++
	} else {
		r.Upvotes++
	}
	r.UpdatedAt = s.now()
	return cloneReport(r), nil
}

func (s *Store) PrependComment(_ context.Context, id uuid.UUID, c models.Comment) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reports[id]
	if !ok {
		return nil, reportNotFound()
	}
	comments := make(datatypes.JSONSlice[models.Comment], 0, len(r.Comments)+1)
	comments = append(comments, c)
	r.Comments = append(comments, r.Comments...)
	r.UpdatedAt = s.now()
	return cloneReport(r), nil
}

func (s *Store) Candidates(_ context.Context, plan *feed.Plan) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []models.Report
	consider := func(r *models.Report) {
		if plan.MatchesAttributes(r) {
			out = append(out, *cloneReport(r))
		}
	}

	if plan.Geo != nil {
		for _, id := range s.geo.FindWithinRadius(plan.Geo.Center, plan.Geo.RadiusMeters) {
			if r, ok := s.reports[id]; ok {
				consider(r)
			}
		}
		return out, nil
	}
	for _, r := range s.reports {
		consider(r)
	}
	return out, nil
}

// ReportsByIDs returns the reports that still exist, in the order of ids.
func (s *Store) ReportsByIDs(_ context.Context, ids []uuid.UUID) ([]models.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Report, 0, len(ids))
	for _, id := range ids {
		if r, ok := s.reports[id]; ok {
			out = append(out, *cloneReport(r))
		}
	}
	return out, nil
}

func (s *Store) OwnerStats(_ context.Context, owner uuid.UUID) (store.OwnerStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var st store.OwnerStats
	for _, r := range s.reports {
		if r.UserID != owner {
			continue
		}
		st.Reports++
		st.Upvotes += r.Upvotes
		if r.Status == models.StatusResolved {
			st.Resolved++
		}
	}
	return st, nil
}

func (s *Store) OwnerSummaries(_ context.Context, ids []uuid.UUID) (map[uuid.UUID]store.OwnerRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[uuid.UUID]store.OwnerRow, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = store.OwnerRow{ID: id, Name: u.Name, Avatar: u.Avatar}
		}
	}
	for _, r := range s.reports {
		row, ok := out[r.UserID]
		if !ok {
			continue
		}
		row.Reports++
		row.Upvotes += r.Upvotes
		if r.Status == models.StatusResolved {
			row.Resolved++
		}
		out[r.UserID] = row
	}
	return out, nil
}

func (s *Store) TagCounts(context.Context) (map[string]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int)
	for _, r := range s.reports {
		for _, t := range r.Tags {
			counts[strings.ToLower(t)]++
		}
	}
	return counts, nil
}

func (s *Store) index(r *models.Report) {
	if !r.Location.HasPoint() {
		s.geo.Remove(r.ID)
		return
	}
	lng, lat := r.Location.Point()
	s.geo.Put(r.ID, geo.Point{Lng: lng, Lat: lat})
}

// Users

func (s *Store) CreateUser(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(u.Email)
	if _, ok := s.byEmail[email]; ok {
		return apperr.Conflict("Email already registered")
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now

	stored := *u
	s.users[u.ID] = &stored
	s.byEmail[email] = u.ID
	return nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, userNotFound()
	}
	out := *u
	return &out, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, userNotFound()
	}
	out := *s.users[id]
	return &out, nil
}

func (s *Store) UpdateProfile(_ context.Context, id uuid.UUID, p store.ProfileUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, userNotFound()
	}
	if p.Name != nil {
		u.Name = *p.Name
	}
	if p.Bio != nil {
		u.Bio = *p.Bio
	}
	if p.Avatar != nil {
		u.Avatar = *p.Avatar
	}
	if p.Location != nil {
		u.Location = *p.Location
	}
	u.UpdatedAt = s.now()
	out := *u
	return &out, nil
}

func (s *Store) ToggleBookmark(_ context.Context, userID, reportID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return false, userNotFound()
	}
	if _, ok := s.reports[reportID]; !ok {
		return false, reportNotFound()
	}

	marks := s.bookmarks[userID]
	i := slices.IndexFunc(marks, func(b bookmark) bool { return b.reportID == reportID })
	if i >= 0 {
		s.bookmarks[userID] = slices.Delete(marks, i, i+1)
		return false, nil
	}
	s.bookmarks[userID] = append(marks, bookmark{reportID: reportID, at: s.now()})
	return true, nil
}

func (s *Store) Bookmarks(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	marks := s.bookmarks[userID]
	out := make([]uuid.UUID, 0, len(marks))
	for i := len(marks) - 1; i >= 0; i-- {
		out = append(out, marks[i].reportID)
	}
	return out, nil
}

// Follow records

func (s *Store) AddFollowing(_ context.Context, userID, targetID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return addMember(s.following, userID, targetID), nil
}

func (s *Store) RemoveFollowing(_ context.Context, userID, targetID uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return removeMember(s.following, userID, targetID), nil
}

func (s *Store) AddFollower(_ context.Context, userID, followerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	addMember(s.followers, userID, followerID)
	return nil
}

func (s *Store) RemoveFollower(_ context.Context, userID, followerID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	removeMember(s.followers, userID, followerID)
	return nil
}

func (s *Store) Following(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.following[userID]), nil
}

func (s *Store) Followers(_ context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.followers[userID]), nil
}

func addMember(sets map[uuid.UUID][]uuid.UUID, key, member uuid.UUID) bool {
	if slices.Contains(sets[key], member) {
		return false
	}
	sets[key] = append(sets[key], member)
	return true
}

func removeMember(sets map[uuid.UUID][]uuid.UUID, key, member uuid.UUID) bool {
	i := slices.Index(sets[key], member)
	if i < 0 {
		return false
	}
	sets[key] = slices.Delete(sets[key], i, i+1)
	if len(sets[key]) == 0 {
		delete(sets, key)
	}
	return true
}

func reportNotFound() error { return apperr.NotFound("Report not found") }

func userNotFound() error { return apperr.NotFound("User not found") }

func cloneReport(r *models.Report) *models.Report {
	out := *r
	out.Tags = slices.Clone(r.Tags)
	out.Comments = slices.Clone(r.Comments)
	out.Location = cloneLocation(r.Location)
	return &out
}

func cloneLocation(l models.Location) models.Location {
	if l.Lng != nil {
		lng := *l.Lng
		l.Lng = &lng
	}
	if l.Lat != nil {
		lat := *l.Lat
		l.Lat = &lat
	}
	return l
}
