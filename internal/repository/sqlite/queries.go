package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository"
)

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scanner interface {
	Scan(dest ...any) error
}

type queries struct {
	db dbtx
}

type tx struct {
	queries
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func nullString(p *string) sql.NullString {
	if p == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *p, Valid: true}
}

func fromNullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	return &v.String
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func fromNullInt(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}

func nullMillis(p *time.Time) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*p), Valid: true}
}

func fromNullMillis(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := fromMillis(v.Int64)
	return &t
}

func expectAffected(op string, res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return wrap(op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, repository.ErrNotFound)
	}
	return nil
}

// ─── Events ───────────────────────────────────────────────────────────────────

const eventColumns = `id, title, description, event_type, status, start_date, end_date,
	registration_start, registration_end, venue_name, city, country,
	capacity, current_attendees, organizer_id, created_at, updated_at`

func scanEvent(row scanner) (*model.Event, error) {
	var (
		e                            model.Event
		status                       string
		start, end, regStart, regEnd int64
		createdAt, updatedAt         int64
	)
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.EventType, &status,
		&start, &end, &regStart, &regEnd,
		&e.VenueName, &e.City, &e.Country, &e.Capacity, &e.CurrentAttendees,
		&e.OrganizerID, &createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	e.Status = model.EventStatus(status)
	e.StartDate, e.EndDate = fromMillis(start), fromMillis(end)
	e.RegistrationStart, e.RegistrationEnd = fromMillis(regStart), fromMillis(regEnd)
	e.CreatedAt, e.UpdatedAt = fromMillis(createdAt), fromMillis(updatedAt)
	return &e, nil
}

func (q queries) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(q.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		return nil, wrap("get event", err)
	}
	return e, nil
}

func (q queries) ListEvents(ctx context.Context, f repository.EventFilter) ([]model.Event, error) {
	var (
		args  []any
		where []string
	)
	if len(f.Statuses) > 0 {
		where = append(where, "status IN ("+placeholders(len(f.Statuses))+")")
		for _, s := range f.Statuses {
			args = append(args, string(s))
		}
	}
	if f.OrganizerID != "" {
		where = append(where, "organizer_id = ?")
		args = append(args, f.OrganizerID)
	}
	if !f.StartsFrom.IsZero() {
		where = append(where, "start_date >= ?")
		args = append(args, toMillis(f.StartsFrom))
	}
	if !f.ActiveAt.IsZero() {
		where = append(where, "start_date <= ? AND end_date >= ?")
		args = append(args, toMillis(f.ActiveAt), toMillis(f.ActiveAt))
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	if !f.StartsFrom.IsZero() {
		query += " ORDER BY start_date ASC, id"
	} else {
		query += " ORDER BY start_date DESC, id"
	}
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("list events", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, wrap("scan event", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list events", err)
	}
	return events, nil
}

func (t *tx) LockEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(t.db.QueryRowContext(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = ?`, id))
	if err != nil {
		return nil, wrap("lock event row", err)
	}
	return e, nil
}

func (t *tx) InsertEvent(ctx context.Context, e *model.Event) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO events (`+eventColumns+`) VALUES (`+placeholders(17)+`)`,
		e.ID, e.Title, e.Description, e.EventType, string(e.Status),
		toMillis(e.StartDate), toMillis(e.EndDate),
		toMillis(e.RegistrationStart), toMillis(e.RegistrationEnd),
		e.VenueName, e.City, e.Country, e.Capacity, e.CurrentAttendees,
		e.OrganizerID, toMillis(e.CreatedAt), toMillis(e.UpdatedAt),
	)
	if err != nil {
		return wrap("insert event", err)
	}
	return nil
}

func (t *tx) UpdateEvent(ctx context.Context, e *model.Event) error {
	res, err := t.db.ExecContext(ctx,
		`UPDATE events SET title = ?, description = ?, event_type = ?, status = ?,
		        start_date = ?, end_date = ?, registration_start = ?, registration_end = ?,
		        venue_name = ?, city = ?, country = ?, capacity = ?,
		        current_attendees = ?, updated_at = ?
		 WHERE id = ?`,
		e.Title, e.Description, e.EventType, string(e.Status),
		toMillis(e.StartDate), toMillis(e.EndDate),
		toMillis(e.RegistrationStart), toMillis(e.RegistrationEnd),
		e.VenueName, e.City, e.Country, e.Capacity, e.CurrentAttendees,
		toMillis(e.UpdatedAt), e.ID,
	)
	if err != nil {
		return wrap("update event", err)
	}
	return expectAffected("update event", res)
}

func (t *tx) SetEventAttendees(ctx context.Context, eventID string, n int) error {
	res, err := t.db.ExecContext(ctx,
		`UPDATE events SET current_attendees = ?, updated_at = ? WHERE id = ?`,
		n, toMillis(time.Now()), eventID,
	)
	if err != nil {
		return wrap("update current_attendees", err)
	}
	return expectAffected("update current_attendees", res)
}

// ─── Tracks ───────────────────────────────────────────────────────────────────

const trackColumns = `id, event_id, name, description, color, room, created_at, updated_at`

func scanTrack(row scanner) (*model.Track, error) {
	var (
		tr                   model.Track
		createdAt, updatedAt int64
	)
	err := row.Scan(&tr.ID, &tr.EventID, &tr.Name, &tr.Description, &tr.Color, &tr.Room,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	tr.CreatedAt, tr.UpdatedAt = fromMillis(createdAt), fromMillis(updatedAt)
	return &tr, nil
}

func (q queries) GetTrack(ctx context.Context, id string) (*model.Track, error) {
	tr, err := scanTrack(q.db.QueryRowContext(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id))
	if err != nil {
		return nil, wrap("get track", err)
	}
	return tr, nil
}

func (q queries) ListTracks(ctx context.Context, eventID string) ([]model.Track, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE event_id = ? ORDER BY name`, eventID)
	if err != nil {
		return nil, wrap("list tracks", err)
	}
	defer rows.Close()

	var tracks []model.Track
	for rows.Next() {
		tr, err := scanTrack(rows)
		if err != nil {
			return nil, wrap("scan track", err)
		}
		tracks = append(tracks, *tr)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list tracks", err)
	}
	return tracks, nil
}

func (t *tx) LockTrack(ctx context.Context, id string) (*model.Track, error) {
	tr, err := scanTrack(t.db.QueryRowContext(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE id = ?`, id))
	if err != nil {
		return nil, wrap("lock track row", err)
	}
	return tr, nil
}

func (t *tx) InsertTrack(ctx context.Context, tr *model.Track) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO tracks (`+trackColumns+`) VALUES (`+placeholders(8)+`)`,
		tr.ID, tr.EventID, tr.Name, tr.Description, tr.Color, tr.Room,
		toMillis(tr.CreatedAt), toMillis(tr.UpdatedAt),
	)
	if err != nil {
		return wrap("insert track", err)
	}
	return nil
}

func (t *tx) DeleteTrack(ctx context.Context, id string) error {
	if _, err := t.db.ExecContext(ctx,
		`UPDATE sessions SET track_id = NULL, updated_at = ? WHERE track_id = ?`,
		toMillis(time.Now()), id,
	); err != nil {
		return wrap("detach track sessions", err)
	}
	res, err := t.db.ExecContext(ctx, `DELETE FROM tracks WHERE id = ?`, id)
	if err != nil {
		return wrap("delete track", err)
	}
	return expectAffected("delete track", res)
}

// ─── Speakers ─────────────────────────────────────────────────────────────────

const speakerColumns = `id, user_id, name, email, bio, title, company, created_at, updated_at`

func scanSpeaker(row scanner) (*model.Speaker, error) {
	var (
		sp                   model.Speaker
		userID               sql.NullString
		createdAt, updatedAt int64
	)
	err := row.Scan(&sp.ID, &userID, &sp.Name, &sp.Email, &sp.Bio, &sp.Title, &sp.Company,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	sp.UserID = fromNullString(userID)
	sp.CreatedAt, sp.UpdatedAt = fromMillis(createdAt), fromMillis(updatedAt)
	return &sp, nil
}

func (q queries) GetSpeaker(ctx context.Context, id string) (*model.Speaker, error) {
	sp, err := scanSpeaker(q.db.QueryRowContext(ctx,
		`SELECT `+speakerColumns+` FROM speakers WHERE id = ?`, id))
	if err != nil {
		return nil, wrap("get speaker", err)
	}
	return sp, nil
}

func (q queries) ListSpeakers(ctx context.Context) ([]model.Speaker, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+speakerColumns+` FROM speakers ORDER BY name, id`)
	if err != nil {
		return nil, wrap("list speakers", err)
	}
	defer rows.Close()

	var speakers []model.Speaker
	for rows.Next() {
		sp, err := scanSpeaker(rows)
		if err != nil {
			return nil, wrap("scan speaker", err)
		}
		speakers = append(speakers, *sp)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list speakers", err)
	}
	return speakers, nil
}

func (t *tx) InsertSpeaker(ctx context.Context, sp *model.Speaker) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO speakers (`+speakerColumns+`) VALUES (`+placeholders(9)+`)`,
		sp.ID, nullString(sp.UserID), sp.Name, sp.Email, sp.Bio, sp.Title, sp.Company,
		toMillis(sp.CreatedAt), toMillis(sp.UpdatedAt),
	)
	if err != nil {
		return wrap("insert speaker", err)
	}
	return nil
}

func (t *tx) MissingSpeakers(ctx context.Context, ids []string) ([]string, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	rows, err := t.db.QueryContext(ctx,
		`SELECT id FROM speakers WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	if err != nil {
		return nil, wrap("check speakers", err)
	}
	defer rows.Close()

	var found []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, wrap("scan speaker id", err)
		}
		found = append(found, id)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("check speakers", err)
	}

	var missing []string
	for _, id := range ids {
		if !slices.Contains(found, id) {
			missing = append(missing, id)
		}
	}
	return missing, nil
}

// ─── Sessions ─────────────────────────────────────────────────────────────────

const sessionColumns = `id, event_id, track_id, title, description, format, level,
	start_time, end_time, duration_minutes, room, max_attendees, tags, created_at, updated_at`

func scanSession(row scanner) (*model.Session, error) {
	var (
		s                    model.Session
		trackID              sql.NullString
		maxAttendees         sql.NullInt64
		start, end           int64
		createdAt, updatedAt int64
	)
	err := row.Scan(&s.ID, &s.EventID, &trackID, &s.Title, &s.Description, &s.Format, &s.Level,
		&start, &end, &s.DurationMinutes, &s.Room, &maxAttendees, &s.Tags,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	s.TrackID = fromNullString(trackID)
	s.MaxAttendees = fromNullInt(maxAttendees)
	s.StartTime, s.EndTime = fromMillis(start), fromMillis(end)
	s.CreatedAt, s.UpdatedAt = fromMillis(createdAt), fromMillis(updatedAt)
	return &s, nil
}

func (q queries) collectSessions(ctx context.Context, op, query string, args ...any) ([]model.Session, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap(op, err)
	}
	defer rows.Close()

	var sessions []model.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, wrap("scan session", err)
		}
		sessions = append(sessions, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap(op, err)
	}
	_ = rows.Close()

	if err := q.attachSpeakers(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

func (q queries) attachSpeakers(ctx context.Context, sessions []model.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	args := make([]any, len(sessions))
	index := make(map[string]int, len(sessions))
	for i := range sessions {
		args[i] = sessions[i].ID
		index[sessions[i].ID] = i
		sessions[i].SpeakerIDs = []string{}
	}

	rows, err := q.db.QueryContext(ctx,
		`SELECT session_id, speaker_id FROM session_speakers
		 WHERE session_id IN (`+placeholders(len(args))+`) ORDER BY speaker_id`, args...)
	if err != nil {
		return wrap("list session speakers", err)
	}
	defer rows.Close()

	for rows.Next() {
		var sessionID, speakerID string
		if err := rows.Scan(&sessionID, &speakerID); err != nil {
			return wrap("scan session speaker", err)
		}
		i := index[sessionID]
		sessions[i].SpeakerIDs = append(sessions[i].SpeakerIDs, speakerID)
	}
	if err := rows.Err(); err != nil {
		return wrap("list session speakers", err)
	}
	return nil
}

func (q queries) GetSession(ctx context.Context, id string) (*model.Session, error) {
	s, err := scanSession(q.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id))
	if err != nil {
		return nil, wrap("get session", err)
	}
	one := []model.Session{*s}
	if err := q.attachSpeakers(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (t *tx) LockSession(ctx context.Context, id string) (*model.Session, error) {
	return t.GetSession(ctx, id)
}

func (q queries) ListSessions(ctx context.Context, f repository.SessionFilter) ([]model.Session, error) {
	var (
		args  []any
		where []string
	)
	if f.EventID != "" {
		where = append(where, "event_id = ?")
		args = append(args, f.EventID)
	}
	if f.SpeakerID != "" {
		where = append(where, "id IN (SELECT session_id FROM session_speakers WHERE speaker_id = ?)")
		args = append(args, f.SpeakerID)
	}
	if !f.ActiveAt.IsZero() {
		where = append(where, "start_time <= ? AND end_time >= ?")
		args = append(args, toMillis(f.ActiveAt), toMillis(f.ActiveAt))
	}
	if !f.StartsFrom.IsZero() {
		where = append(where, "start_time >= ?")
		args = append(args, toMillis(f.StartsFrom))
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_time, id"
	if f.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, f.Limit)
	}
	return q.collectSessions(ctx, "list sessions", query, args...)
}

func (q queries) ListTrackSessions(ctx context.Context, eventID, trackID string) ([]model.Session, error) {
	return q.collectSessions(ctx, "list track sessions",
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE event_id = ? AND track_id = ?
		 ORDER BY start_time, id`,
		eventID, trackID)
}

func (t *tx) InsertSession(ctx context.Context, s *model.Session) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`) VALUES (`+placeholders(15)+`)`,
		s.ID, s.EventID, nullString(s.TrackID), s.Title, s.Description, s.Format, s.Level,
		toMillis(s.StartTime), toMillis(s.EndTime), s.DurationMinutes, s.Room,
		nullInt(s.MaxAttendees), s.Tags, toMillis(s.CreatedAt), toMillis(s.UpdatedAt),
	)
	if err != nil {
		return wrap("insert session", err)
	}
	return nil
}

func (t *tx) UpdateSession(ctx context.Context, s *model.Session) error {
	res, err := t.db.ExecContext(ctx,
		`UPDATE sessions SET event_id = ?, track_id = ?, title = ?, description = ?,
		        format = ?, level = ?, start_time = ?, end_time = ?, duration_minutes = ?,
		        room = ?, max_attendees = ?, tags = ?, updated_at = ?
		 WHERE id = ?`,
		s.EventID, nullString(s.TrackID), s.Title, s.Description, s.Format, s.Level,
		toMillis(s.StartTime), toMillis(s.EndTime), s.DurationMinutes, s.Room,
		nullInt(s.MaxAttendees), s.Tags, toMillis(s.UpdatedAt), s.ID,
	)
	if err != nil {
		return wrap("update session", err)
	}
	return expectAffected("update session", res)
}

func (t *tx) DeleteSession(ctx context.Context, id string) error {
	res, err := t.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return wrap("delete session", err)
	}
	return expectAffected("delete session", res)
}

func (t *tx) ReplaceSessionSpeakers(ctx context.Context, sessionID string, speakerIDs []string) error {
	if _, err := t.db.ExecContext(ctx,
		`DELETE FROM session_speakers WHERE session_id = ?`, sessionID,
	); err != nil {
		return wrap("clear session speakers", err)
	}
	for _, speakerID := range speakerIDs {
		if _, err := t.db.ExecContext(ctx,
			`INSERT INTO session_speakers (session_id, speaker_id) VALUES (?, ?)`,
			sessionID, speakerID,
		); err != nil {
			return wrap("insert session speaker", err)
		}
	}
	return nil
}

// ─── Registrations ────────────────────────────────────────────────────────────

const registrationColumns = `id, event_id, attendee_id, status, registration_date,
	confirmation_date, dietary_requirements, special_requests, updated_at`

func scanRegistration(row scanner) (*model.Registration, error) {
	var (
		r            model.Registration
		status       string
		registeredAt int64
		confirmedAt  sql.NullInt64
		updatedAt    int64
	)
	err := row.Scan(&r.ID, &r.EventID, &r.AttendeeID, &status, &registeredAt,
		&confirmedAt, &r.DietaryRequirements, &r.SpecialRequests, &updatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = model.RegistrationStatus(status)
	r.RegistrationDate = fromMillis(registeredAt)
	r.ConfirmationDate = fromNullMillis(confirmedAt)
	r.UpdatedAt = fromMillis(updatedAt)
	return &r, nil
}

func (q queries) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	r, err := scanRegistration(q.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = ?`, id))
	if err != nil {
		return nil, wrap("get registration", err)
	}
	return r, nil
}

func (q queries) ListRegistrations(ctx context.Context, f repository.RegistrationFilter) ([]model.Registration, error) {
	var (
		args  []any
		where []string
	)
	if f.EventID != "" {
		where = append(where, "event_id = ?")
		args = append(args, f.EventID)
	}
	if f.AttendeeID != "" {
		where = append(where, "attendee_id = ?")
		args = append(args, f.AttendeeID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, string(f.Status))
	}
	query := `SELECT ` + registrationColumns + ` FROM registrations`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY registration_date ASC, id"

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, wrap("list registrations", err)
	}
	defer rows.Close()

	var regs []model.Registration
	for rows.Next() {
		r, err := scanRegistration(rows)
		if err != nil {
			return nil, wrap("scan registration", err)
		}
		regs = append(regs, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, wrap("list registrations", err)
	}
	return regs, nil
}

func (t *tx) LockRegistration(ctx context.Context, id string) (*model.Registration, error) {
	r, err := scanRegistration(t.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = ?`, id))
	if err != nil {
		return nil, wrap("lock registration row", err)
	}
	return r, nil
}

func (t *tx) FindActiveRegistration(ctx context.Context, eventID, attendeeID string) (*model.Registration, error) {
	r, err := scanRegistration(t.db.QueryRowContext(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE event_id = ? AND attendee_id = ? AND status <> 'cancelled'`,
		eventID, attendeeID))
	if err != nil {
		return nil, wrap("find active registration", err)
	}
	return r, nil
}

func (t *tx) CountActiveRegistrations(ctx context.Context, eventID string) (int, error) {
	var n int
	err := t.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = ? AND status <> 'cancelled'`,
		eventID,
	).Scan(&n)
	if err != nil {
		return 0, wrap("count active registrations", err)
	}
	return n, nil
}

func (t *tx) InsertRegistration(ctx context.Context, r *model.Registration) error {
	_, err := t.db.ExecContext(ctx,
		`INSERT INTO registrations (`+registrationColumns+`) VALUES (`+placeholders(9)+`)`,
		r.ID, r.EventID, r.AttendeeID, string(r.Status), toMillis(r.RegistrationDate),
		nullMillis(r.ConfirmationDate), r.DietaryRequirements, r.SpecialRequests,
		toMillis(r.UpdatedAt),
	)
	if err != nil {
		return wrap("insert registration", err)
	}
	return nil
}

func (t *tx) UpdateRegistration(ctx context.Context, r *model.Registration) error {
	res, err := t.db.ExecContext(ctx,
		`UPDATE registrations SET status = ?, confirmation_date = ?,
		        dietary_requirements = ?, special_requests = ?, updated_at = ?
		 WHERE id = ?`,
		string(r.Status), nullMillis(r.ConfirmationDate), r.DietaryRequirements,
		r.SpecialRequests, toMillis(r.UpdatedAt), r.ID,
	)
	if err != nil {
		return wrap("update registration", err)
	}
	return expectAffected("update registration", res)
}
