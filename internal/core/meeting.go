package core

import (
	"context"
	"slices"
	"time"

	"github.com/meetgrid/backend/internal/status"
)

const meetingIDLength = 16

// MeetingManager implements the meeting lifecycle on top of a
// MeetingRepository. State only moves forward; Ended is terminal.
type MeetingManager struct {
	opts MeetingOptions
	repo MeetingRepository
}

func NewMeetingManager(opts MeetingOptions, repo MeetingRepository) *MeetingManager {
	if opts.MaxParticipants <= 0 {
		opts.MaxParticipants = DefaultMeetingOptions().MaxParticipants
	}
	if opts.CodeLength <= 0 {
		opts.CodeLength = DefaultMeetingOptions().CodeLength
	}
	return &MeetingManager{opts: opts, repo: repo}
}

// CreateMeeting stores a new Scheduled meeting with the organizer as its
// first participant.
func (m *MeetingManager) CreateMeeting(ctx context.Context, cmd CreateMeetingCommand) (MeetingData, error) {
	if cmd.OrganizerID == 0 {
		return MeetingData{}, status.InvalidArgument("Organizer ID cannot be empty.").Err()
	}
	if cmd.Topic == "" {
		return MeetingData{}, status.InvalidArgument("Meeting topic cannot be empty.").Err()
	}

	now := time.Now().Unix()
	data := MeetingData{
		MeetingID:    generateMeetingID(),
		MeetingCode:  randomAlnum(m.opts.CodeLength),
		OrganizerID:  cmd.OrganizerID,
		Topic:        cmd.Topic,
		State:        MeetingScheduled,
		Participants: []uint64{cmd.OrganizerID},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	return m.repo.CreateMeeting(ctx, data)
}

// JoinMeeting adds a participant. The first non-organizer join moves a
// Scheduled meeting to Running; the membership write lands before the state
// transition so a failed transition never loses the join.
func (m *MeetingManager) JoinMeeting(ctx context.Context, cmd JoinMeetingCommand) (MeetingData, error) {
	if cmd.MeetingID == "" {
		return MeetingData{}, status.InvalidArgument("Meeting ID cannot be empty.").Err()
	}
	if cmd.ParticipantID == 0 {
		return MeetingData{}, status.InvalidArgument("Participant ID cannot be empty.").Err()
	}

	meeting, err := m.repo.GetMeeting(ctx, cmd.MeetingID)
	if err != nil {
		return MeetingData{}, err
	}
	if meeting.State == MeetingEnded {
		return MeetingData{}, status.InvalidArgument("Cannot join a meeting that has ended.").Err()
	}
	if slices.Contains(meeting.Participants, cmd.ParticipantID) {
		return MeetingData{}, status.AlreadyExists("Participant already in the meeting.").Err()
	}
	if len(meeting.Participants) >= m.opts.MaxParticipants {
		return MeetingData{}, status.Unavailable("Meeting has reached maximum participant limit.").Err()
	}

	if err := m.repo.AddParticipant(ctx, cmd.MeetingID, cmd.ParticipantID, false); err != nil {
		return MeetingData{}, err
	}

	now := time.Now().Unix()
	state := meeting.State
	if state == MeetingScheduled && cmd.ParticipantID != meeting.OrganizerID {
		state = MeetingRunning
	}
	if err := m.repo.UpdateMeetingState(ctx, cmd.MeetingID, state, now); err != nil {
		return MeetingData{}, err
	}

	return m.repo.GetMeeting(ctx, cmd.MeetingID)
}

// LeaveMeeting removes a participant. Depending on the options, the meeting
// ends when the organizer leaves or when the last participant is gone.
func (m *MeetingManager) LeaveMeeting(ctx context.Context, cmd LeaveMeetingCommand) error {
	if cmd.MeetingID == "" {
		return status.InvalidArgument("Meeting ID cannot be empty.").Err()
	}
	if cmd.ParticipantID == 0 {
		return status.InvalidArgument("Participant ID cannot be empty.").Err()
	}

	meeting, err := m.repo.GetMeeting(ctx, cmd.MeetingID)
	if err != nil {
		return err
	}
	if meeting.State == MeetingEnded {
		return status.InvalidArgument("Cannot leave a meeting that has ended.").Err()
	}
	if !slices.Contains(meeting.Participants, cmd.ParticipantID) {
		return status.NotFound("Participant not found in the meeting.").Err()
	}

	if err := m.repo.RemoveParticipant(ctx, cmd.MeetingID, cmd.ParticipantID); err != nil {
		return err
	}

	now := time.Now().Unix()
	state := meeting.State
	if m.opts.EndWhenOrganizerLeaves && cmd.ParticipantID == meeting.OrganizerID {
		state = MeetingEnded
	} else if m.opts.EndWhenEmpty && len(meeting.Participants) == 1 {
		// The leaver was the last member.
		state = MeetingEnded
	}
	return m.repo.UpdateMeetingState(ctx, cmd.MeetingID, state, now)
}

// EndMeeting transitions the meeting to Ended. Only the organizer may do so.
func (m *MeetingManager) EndMeeting(ctx context.Context, cmd EndMeetingCommand) error {
	if cmd.MeetingID == "" {
		return status.InvalidArgument("Meeting ID cannot be empty.").Err()
	}
	if cmd.RequesterID == 0 {
		return status.InvalidArgument("Requester ID cannot be empty.").Err()
	}

	meeting, err := m.repo.GetMeeting(ctx, cmd.MeetingID)
	if err != nil {
		return err
	}
	if meeting.State == MeetingEnded {
		return status.InvalidArgument("Meeting has already ended.").Err()
	}
	if cmd.RequesterID != meeting.OrganizerID {
		return status.Unauthenticated("Only the organizer can end the meeting.").Err()
	}

	return m.repo.UpdateMeetingState(ctx, cmd.MeetingID, MeetingEnded, time.Now().Unix())
}

func (m *MeetingManager) GetMeeting(ctx context.Context, meetingID string) (MeetingData, error) {
	if meetingID == "" {
		return MeetingData{}, status.InvalidArgument("Meeting ID cannot be empty.").Err()
	}
	return m.repo.GetMeeting(ctx, meetingID)
}

func (m *MeetingManager) ListParticipants(ctx context.Context, meetingID string) ([]uint64, error) {
	if meetingID == "" {
		return nil, status.InvalidArgument("Meeting ID cannot be empty.").Err()
	}
	return m.repo.ListParticipants(ctx, meetingID)
}

func generateMeetingID() string {
	return "meeting_-" + randomAlnum(meetingIDLength)
}
