package services

import (
	"context"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/courtside/league-system/brackets"
	"github.com/courtside/league-system/models"
	"github.com/courtside/league-system/repositories"
	"github.com/google/uuid"
)

// fakeTxRunner serializes atomic sections with a mutex, standing in for the
// event-row lock the Postgres implementation takes. Concurrent calls queue up
// exactly like competing transactions on the same row.
type fakeTxRunner struct {
	mu sync.Mutex
}

func (r *fakeTxRunner) RunInTx(_ context.Context, fn func(exec repositories.SQLExecutor) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return fn(nil)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestHub() *brackets.Hub {
	return brackets.NewHub(discardLogger())
}

// --- events ---

type fakeEventRepo struct {
	mu       sync.Mutex
	nextID   int
	events   map[int]*models.ScheduledEvent
	waitlist map[int][]int
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		events:   make(map[int]*models.ScheduledEvent),
		waitlist: make(map[int][]int),
	}
}

func (r *fakeEventRepo) put(event *models.ScheduledEvent) *models.ScheduledEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	event.ID = r.nextID
	if event.PublicID == uuid.Nil {
		event.PublicID = uuid.New()
	}
	stored := *event
	r.events[event.ID] = &stored
	return event
}

func (r *fakeEventRepo) Create(_ context.Context, _ repositories.SQLExecutor, event *models.ScheduledEvent) error {
	r.put(event)
	return nil
}

func (r *fakeEventRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.ScheduledEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[id]
	if !ok {
		return nil, repositories.ErrEventNotFound
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeEventRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.ScheduledEvent, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeEventRepo) GetByPublicID(_ context.Context, publicID uuid.UUID) (*models.ScheduledEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.events {
		if stored.PublicID == publicID {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, repositories.ErrEventNotFound
}

func (r *fakeEventRepo) UpdateCounters(_ context.Context, _ repositories.SQLExecutor, id, confirmed, declined, maybe int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	stored.ConfirmedCount = confirmed
	stored.DeclinedCount = declined
	stored.MaybeCount = maybe
	return nil
}

func (r *fakeEventRepo) ConfirmDate(_ context.Context, _ repositories.SQLExecutor, id int, startsAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.events[id]
	if !ok {
		return repositories.ErrEventNotFound
	}
	stored.StartsAt = &startsAt
	stored.DateConfirmedByVoting = true
	return nil
}

func (r *fakeEventRepo) ListWaitlist(_ context.Context, _ repositories.SQLExecutor, eventID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.waitlist[eventID]), nil
}

func (r *fakeEventRepo) AddToWaitlist(_ context.Context, _ repositories.SQLExecutor, eventID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if slices.Contains(r.waitlist[eventID], userID) {
		return nil
	}
	r.waitlist[eventID] = append(r.waitlist[eventID], userID)
	return nil
}

func (r *fakeEventRepo) RemoveFromWaitlist(_ context.Context, _ repositories.SQLExecutor, eventID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.waitlist[eventID]
	if i := slices.Index(list, userID); i >= 0 {
		r.waitlist[eventID] = slices.Delete(list, i, i+1)
	}
	return nil
}

// --- invitations ---

type fakeInvitationRepo struct {
	mu          sync.Mutex
	nextID      int
	invitations map[int]*models.Invitation
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{invitations: make(map[int]*models.Invitation)}
}

func (r *fakeInvitationRepo) CreateBatch(_ context.Context, _ repositories.SQLExecutor, eventID int, userIDs []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, userID := range userIDs {
		if r.find(eventID, userID) != nil {
			continue
		}
		r.nextID++
		r.invitations[r.nextID] = &models.Invitation{
			ID:       r.nextID,
			EventID:  eventID,
			UserID:   userID,
			Response: models.ResponsePending,
		}
	}
	return nil
}

func (r *fakeInvitationRepo) find(eventID, userID int) *models.Invitation {
	for _, inv := range r.invitations {
		if inv.EventID == eventID && inv.UserID == userID {
			return inv
		}
	}
	return nil
}

func (r *fakeInvitationRepo) GetByEventAndUser(_ context.Context, _ repositories.SQLExecutor, eventID, userID int) (*models.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv := r.find(eventID, userID)
	if inv == nil {
		return nil, repositories.ErrInvitationNotFound
	}
	copied := *inv
	return &copied, nil
}

func (r *fakeInvitationRepo) UpdateResponse(_ context.Context, _ repositories.SQLExecutor, id int, response models.InviteResponse, respondedAt time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	inv, ok := r.invitations[id]
	if !ok {
		return repositories.ErrInvitationNotFound
	}
	inv.Response = response
	inv.RespondedAt = &respondedAt
	return nil
}

func (r *fakeInvitationRepo) ListByEvent(_ context.Context, eventID int) ([]models.Invitation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Invitation
	for _, inv := range r.invitations {
		if inv.EventID == eventID {
			out = append(out, *inv)
		}
	}
	return out, nil
}

// --- proposals ---

type fakeProposalRepo struct {
	mu        sync.Mutex
	nextID    int
	proposals map[int]*models.DateProposal
	voters    map[int][]int
}

func newFakeProposalRepo() *fakeProposalRepo {
	return &fakeProposalRepo{
		proposals: make(map[int]*models.DateProposal),
		voters:    make(map[int][]int),
	}
}

func (r *fakeProposalRepo) Create(_ context.Context, _ repositories.SQLExecutor, proposal *models.DateProposal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	proposal.ID = r.nextID
	stored := *proposal
	r.proposals[proposal.ID] = &stored
	return nil
}

func (r *fakeProposalRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.DateProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.proposals[id]
	if !ok {
		return nil, repositories.ErrProposalNotFound
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeProposalRepo) ListByEvent(_ context.Context, eventID int) ([]models.DateProposal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.DateProposal
	for _, p := range r.proposals {
		if p.EventID == eventID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *fakeProposalRepo) HasVote(_ context.Context, _ repositories.SQLExecutor, proposalID, userID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.voters[proposalID], userID), nil
}

func (r *fakeProposalRepo) AddVote(_ context.Context, _ repositories.SQLExecutor, proposalID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !slices.Contains(r.voters[proposalID], userID) {
		r.voters[proposalID] = append(r.voters[proposalID], userID)
	}
	return nil
}

func (r *fakeProposalRepo) RemoveVote(_ context.Context, _ repositories.SQLExecutor, proposalID, userID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	list := r.voters[proposalID]
	if i := slices.Index(list, userID); i >= 0 {
		r.voters[proposalID] = slices.Delete(list, i, i+1)
	}
	return nil
}

func (r *fakeProposalRepo) SetVotesCount(_ context.Context, _ repositories.SQLExecutor, proposalID, votesCount int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.proposals[proposalID]
	if !ok {
		return repositories.ErrProposalNotFound
	}
	stored.VotesCount = votesCount
	return nil
}

func (r *fakeProposalRepo) ListVoters(_ context.Context, _ repositories.SQLExecutor, proposalID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.voters[proposalID]), nil
}

// --- cups ---

type fakeCupRepo struct {
	mu      sync.Mutex
	nextID  int
	cups    map[int]*models.Cup
	teamIDs map[int][]int
}

func newFakeCupRepo() *fakeCupRepo {
	return &fakeCupRepo{
		cups:    make(map[int]*models.Cup),
		teamIDs: make(map[int][]int),
	}
}

func (r *fakeCupRepo) Create(_ context.Context, _ repositories.SQLExecutor, cup *models.Cup, teamIDs []int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	cup.ID = r.nextID
	stored := *cup
	r.cups[cup.ID] = &stored
	r.teamIDs[cup.ID] = slices.Clone(teamIDs)
	return nil
}

func (r *fakeCupRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.Cup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.cups[id]
	if !ok {
		return nil, repositories.ErrCupNotFound
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeCupRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Cup, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeCupRepo) List(_ context.Context) ([]*models.Cup, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Cup
	for _, stored := range r.cups {
		copied := *stored
		out = append(out, &copied)
	}
	return out, nil
}

func (r *fakeCupRepo) ListTeamIDs(_ context.Context, _ repositories.SQLExecutor, cupID int) ([]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.teamIDs[cupID]), nil
}

func (r *fakeCupRepo) ListTeams(_ context.Context, cupID int) ([]models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Team
	for _, id := range r.teamIDs[cupID] {
		out = append(out, models.Team{ID: id})
	}
	return out, nil
}

func (r *fakeCupRepo) UpdateProgress(_ context.Context, _ repositories.SQLExecutor, id int, status models.CupStatus, currentRound, totalRounds int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.cups[id]
	if !ok {
		return repositories.ErrCupNotFound
	}
	stored.Status = status
	stored.CurrentRound = currentRound
	stored.TotalRounds = totalRounds
	return nil
}

func (r *fakeCupRepo) SetResult(_ context.Context, _ repositories.SQLExecutor, id int, championTeamID, runnerUpTeamID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.cups[id]
	if !ok {
		return repositories.ErrCupNotFound
	}
	stored.Status = models.CupStatusCompleted
	stored.ChampionTeamID = &championTeamID
	stored.RunnerUpTeamID = &runnerUpTeamID
	return nil
}

func (r *fakeCupRepo) UpdateLogoKey(_ context.Context, id int, logoKey *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.cups[id]
	if !ok {
		return repositories.ErrCupNotFound
	}
	stored.LogoKey = logoKey
	return nil
}

func (r *fakeCupRepo) Delete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.cups[id]; !ok {
		return repositories.ErrCupNotFound
	}
	delete(r.cups, id)
	delete(r.teamIDs, id)
	return nil
}

// --- matches ---

type fakeMatchRepo struct {
	mu      sync.Mutex
	nextID  int
	matches map[int]*models.CupMatch
}

func newFakeMatchRepo() *fakeMatchRepo {
	return &fakeMatchRepo{matches: make(map[int]*models.CupMatch)}
}

func (r *fakeMatchRepo) CreateBatch(_ context.Context, _ repositories.SQLExecutor, matches []*models.CupMatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range matches {
		r.nextID++
		m.ID = r.nextID
		stored := *m
		r.matches[m.ID] = &stored
	}
	return nil
}

func (r *fakeMatchRepo) GetByID(_ context.Context, _ repositories.SQLExecutor, id int) (*models.CupMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.matches[id]
	if !ok {
		return nil, repositories.ErrCupMatchNotFound
	}
	copied := *stored
	return &copied, nil
}

func (r *fakeMatchRepo) GetByIDForUpdate(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.CupMatch, error) {
	return r.GetByID(ctx, exec, id)
}

func (r *fakeMatchRepo) GetBySlot(_ context.Context, _ repositories.SQLExecutor, cupID, round, slot int) (*models.CupMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, stored := range r.matches {
		if stored.CupID == cupID && stored.Round == round && stored.Slot == slot {
			copied := *stored
			return &copied, nil
		}
	}
	return nil, repositories.ErrCupMatchNotFound
}

func (r *fakeMatchRepo) ListByCup(_ context.Context, _ repositories.SQLExecutor, cupID int, round *int) ([]*models.CupMatch, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.CupMatch
	for _, stored := range r.matches {
		if stored.CupID != cupID {
			continue
		}
		if round != nil && stored.Round != *round {
			continue
		}
		copied := *stored
		out = append(out, &copied)
	}
	slices.SortFunc(out, func(a, b *models.CupMatch) int {
		if a.Round != b.Round {
			return a.Round - b.Round
		}
		return a.Slot - b.Slot
	})
	return out, nil
}

func (r *fakeMatchRepo) SetWinner(_ context.Context, _ repositories.SQLExecutor, id, winnerTeamID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.matches[id]
	if !ok {
		return repositories.ErrCupMatchNotFound
	}
	stored.WinnerID = &winnerTeamID
	return nil
}

func (r *fakeMatchRepo) SetTeamSlot(_ context.Context, _ repositories.SQLExecutor, id, side, teamID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.matches[id]
	if !ok {
		return repositories.ErrCupMatchNotFound
	}
	switch side {
	case 1:
		stored.Team1ID = &teamID
	case 2:
		stored.Team2ID = &teamID
	default:
		return repositories.ErrCupMatchSlotInvalid
	}
	return nil
}

func (r *fakeMatchRepo) SetEventID(_ context.Context, _ repositories.SQLExecutor, id, eventID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.matches[id]
	if !ok {
		return repositories.ErrCupMatchNotFound
	}
	stored.EventID = &eventID
	return nil
}

func (r *fakeMatchRepo) CountUndecidedPlayable(_ context.Context, _ repositories.SQLExecutor, cupID, round int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, stored := range r.matches {
		if stored.CupID == cupID && stored.Round == round &&
			stored.WinnerID == nil && stored.Team1ID != nil && stored.Team2ID != nil {
			count++
		}
	}
	return count, nil
}

// --- teams ---

type fakeTeamRepo struct {
	strengths map[int]float64
	rosters   map[int][]int
}

func newFakeTeamRepo() *fakeTeamRepo {
	return &fakeTeamRepo{
		strengths: make(map[int]float64),
		rosters:   make(map[int][]int),
	}
}

func (r *fakeTeamRepo) GetByID(_ context.Context, id int) (*models.Team, error) {
	if _, ok := r.rosters[id]; !ok {
		return nil, repositories.ErrTeamNotFound
	}
	return &models.Team{ID: id}, nil
}

func (r *fakeTeamRepo) StrengthByTeam(_ context.Context, teamIDs []int) (map[int]float64, error) {
	out := make(map[int]float64, len(teamIDs))
	for _, id := range teamIDs {
		out[id] = r.strengths[id]
	}
	return out, nil
}

func (r *fakeTeamRepo) ListPlayerIDsByTeams(_ context.Context, teamIDs []int) ([]int, error) {
	var out []int
	for _, id := range teamIDs {
		out = append(out, r.rosters[id]...)
	}
	return out, nil
}
