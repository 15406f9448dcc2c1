package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/meetgrid/backend/internal/core"
	"github.com/meetgrid/backend/internal/status"
)

// MeetingRepository implements core.MeetingRepository against the meetings
// and meeting_participants tables.
type MeetingRepository struct {
	db *DB
}

func NewMeetingRepository(db *DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// CreateMeeting inserts the meeting and its organizer membership in one
// transaction.
func (r *MeetingRepository) CreateMeeting(ctx context.Context, data core.MeetingData) (core.MeetingData, error) {
	ctx, cancel := r.db.lease(ctx)
	defer cancel()

	createdAt := max(data.CreatedAt, 1)
	updatedAt := max(data.UpdatedAt, createdAt)
	err := r.db.WithTx(ctx, func(tx *sql.Tx) error {
		var rowID int64
		err := tx.QueryRowContext(ctx,
			`INSERT INTO meetings (meeting_id, meeting_code, organizer_id, topic, state, created_at, updated_at)
			 VALUES ($1, $2, $3, $4, $5, to_timestamp($6), to_timestamp($7))
			 RETURNING id`,
			data.MeetingID, data.MeetingCode, data.OrganizerID, data.Topic,
			int(data.State), createdAt, updatedAt).Scan(&rowID)
		if err != nil {
			return mapError(err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO meeting_participants (meeting_id, user_id, role) VALUES ($1, $2, 1)`,
			rowID, data.OrganizerID)
		return mapError(err)
	})
	if err != nil {
		return core.MeetingData{}, err
	}
	return data, nil
}

func (r *MeetingRepository) GetMeeting(ctx context.Context, meetingID string) (core.MeetingData, error) {
	ctx, cancel := r.db.lease(ctx)
	defer cancel()

	row := r.db.pool.QueryRowContext(ctx,
		`SELECT meeting_id, meeting_code, organizer_id, topic, state,
		        extract(epoch FROM created_at)::bigint,
		        extract(epoch FROM updated_at)::bigint
		 FROM meetings WHERE meeting_id = $1`, meetingID)

	var data core.MeetingData
	var state int
	err := row.Scan(&data.MeetingID, &data.MeetingCode, &data.OrganizerID,
		&data.Topic, &state, &data.CreatedAt, &data.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return core.MeetingData{}, status.NotFound("meeting not found").Err()
	}
	if err != nil {
		return core.MeetingData{}, mapError(err)
	}
	data.State = core.MeetingState(state)

	data.Participants, err = r.ListParticipants(ctx, meetingID)
	if err != nil {
		return core.MeetingData{}, err
	}
	return data, nil
}

func (r *MeetingRepository) UpdateMeetingState(ctx context.Context, meetingID string, state core.MeetingState, updatedAt int64) error {
	ctx, cancel := r.db.lease(ctx)
	defer cancel()

	res, err := r.db.pool.ExecContext(ctx,
		`UPDATE meetings SET state = $1, updated_at = to_timestamp($2) WHERE meeting_id = $3`,
		int(state), max(updatedAt, 1), meetingID)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return status.NotFound("meeting not found").Err()
	}
	return nil
}

func (r *MeetingRepository) AddParticipant(ctx context.Context, meetingID string, participantID uint64, isOrganizer bool) error {
	ctx, cancel := r.db.lease(ctx)
	defer cancel()

	role := 0
	if isOrganizer {
		role = 1
	}
	res, err := r.db.pool.ExecContext(ctx,
		`INSERT INTO meeting_participants (meeting_id, user_id, role)
		 SELECT id, $2, $3 FROM meetings WHERE meeting_id = $1`,
		meetingID, participantID, role)
	if err != nil {
		if status.CodeOf(mapError(err)) == status.CodeAlreadyExists {
			return status.AlreadyExists("participant already in meeting").Err()
		}
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return status.NotFound("meeting not found").Err()
	}
	return nil
}

func (r *MeetingRepository) RemoveParticipant(ctx context.Context, meetingID string, participantID uint64) error {
	ctx, cancel := r.db.lease(ctx)
	defer cancel()

	res, err := r.db.pool.ExecContext(ctx,
		`DELETE FROM meeting_participants
		 WHERE meeting_id = (SELECT id FROM meetings WHERE meeting_id = $1) AND user_id = $2`,
		meetingID, participantID)
	if err != nil {
		return mapError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return status.NotFound("participant not in meeting").Err()
	}
	return nil
}

func (r *MeetingRepository) ListParticipants(ctx context.Context, meetingID string) ([]uint64, error) {
	rows, err := r.db.pool.QueryContext(ctx,
		`SELECT user_id FROM meeting_participants
		 WHERE meeting_id = (SELECT id FROM meetings WHERE meeting_id = $1)
		 ORDER BY joined_at, user_id`, meetingID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, mapError(err)
		}
		ids = append(ids, id)
	}
	return ids, mapError(rows.Err())
}
