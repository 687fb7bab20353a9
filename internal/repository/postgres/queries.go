package postgres

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Shivanand-hulikatti/conference-scheduler/internal/model"
	"github.com/Shivanand-hulikatti/conference-scheduler/internal/repository"
)

// dbtx is satisfied by both *pgxpool.Pool and pgx.Tx.
type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type scanner interface {
	Scan(dest ...any) error
}

// queries holds the statements shared by the pool and transactions.
type queries struct {
	db dbtx
}

// tx adds row locks and writes on top of queries.
type tx struct {
	queries
}

// args collects positional parameters while building dynamic WHERE clauses.
type args []any

func (a *args) add(v any) string {
	*a = append(*a, v)
	return fmt.Sprintf("$%d", len(*a))
}

func now() time.Time {
	return time.Now().UTC()
}

// ─── Events ───────────────────────────────────────────────────────────────────

const eventColumns = `id, title, description, event_type, status, start_date, end_date,
	registration_start, registration_end, venue_name, city, country,
	capacity, current_attendees, organizer_id, created_at, updated_at`

func scanEvent(row scanner) (*model.Event, error) {
	var (
		e      model.Event
		status string
	)
	err := row.Scan(&e.ID, &e.Title, &e.Description, &e.EventType, &status,
		&e.StartDate, &e.EndDate, &e.RegistrationStart, &e.RegistrationEnd,
		&e.VenueName, &e.City, &e.Country, &e.Capacity, &e.CurrentAttendees,
		&e.OrganizerID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Status = model.EventStatus(status)
	return &e, nil
}

// GetEvent returns a single event or ErrNotFound.
func (q queries) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(q.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get event", err)
	}
	return e, nil
}

// ListEvents returns events matching f. Upcoming queries (StartsFrom set) are
// ordered soonest first, everything else latest first.
func (q queries) ListEvents(ctx context.Context, f repository.EventFilter) ([]model.Event, error) {
	var (
		a     args
		where []string
	)
	if len(f.Statuses) > 0 {
		statuses := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			statuses[i] = string(s)
		}
		where = append(where, "status = ANY("+a.add(statuses)+")")
	}
	if f.OrganizerID != "" {
		where = append(where, "organizer_id = "+a.add(f.OrganizerID))
	}
	if !f.StartsFrom.IsZero() {
		where = append(where, "start_date >= "+a.add(f.StartsFrom))
	}
	if !f.ActiveAt.IsZero() {
		p := a.add(f.ActiveAt)
		where = append(where, "start_date <= "+p+" AND end_date >= "+p)
	}

	sql := `SELECT ` + eventColumns + ` FROM events`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	if !f.StartsFrom.IsZero() {
		sql += " ORDER BY start_date ASC, id"
	} else {
		sql += " ORDER BY start_date DESC, id"
	}
	if f.Limit > 0 {
		sql += " LIMIT " + a.add(f.Limit)
	}

	rows, err := q.db.Query(ctx, sql, a...)
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

// LockEvent reads the event row and holds an exclusive lock on it until the
// transaction ends.
func (t *tx) LockEvent(ctx context.Context, id string) (*model.Event, error) {
	e, err := scanEvent(t.db.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, wrap("lock event row", err)
	}
	return e, nil
}

func (t *tx) InsertEvent(ctx context.Context, e *model.Event) error {
	_, err := t.db.Exec(ctx,
		`INSERT INTO events (`+eventColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		e.ID, e.Title, e.Description, e.EventType, string(e.Status),
		e.StartDate, e.EndDate, e.RegistrationStart, e.RegistrationEnd,
		e.VenueName, e.City, e.Country, e.Capacity, e.CurrentAttendees,
		e.OrganizerID, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return wrap("insert event", err)
	}
	return nil
}

func (t *tx) UpdateEvent(ctx context.Context, e *model.Event) error {
	tag, err := t.db.Exec(ctx,
		`UPDATE events SET title = $2, description = $3, event_type = $4, status = $5,
		        start_date = $6, end_date = $7, registration_start = $8, registration_end = $9,
		        venue_name = $10, city = $11, country = $12, capacity = $13,
		        current_attendees = $14, updated_at = $15
		 WHERE id = $1`,
		e.ID, e.Title, e.Description, e.EventType, string(e.Status),
		e.StartDate, e.EndDate, e.RegistrationStart, e.RegistrationEnd,
		e.VenueName, e.City, e.Country, e.Capacity, e.CurrentAttendees, e.UpdatedAt,
	)
	if err != nil {
		return wrap("update event", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update event: %w", repository.ErrNotFound)
	}
	return nil
}

func (t *tx) SetEventAttendees(ctx context.Context, eventID string, n int) error {
	tag, err := t.db.Exec(ctx,
		`UPDATE events SET current_attendees = $2, updated_at = $3 WHERE id = $1`,
		eventID, n, now(),
	)
	if err != nil {
		return wrap("update current_attendees", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update current_attendees: %w", repository.ErrNotFound)
	}
	return nil
}

// ─── Tracks ───────────────────────────────────────────────────────────────────

const trackColumns = `id, event_id, name, description, color, room, created_at, updated_at`

func scanTrack(row scanner) (*model.Track, error) {
	var tr model.Track
	err := row.Scan(&tr.ID, &tr.EventID, &tr.Name, &tr.Description, &tr.Color, &tr.Room,
		&tr.CreatedAt, &tr.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &tr, nil
}

func (q queries) GetTrack(ctx context.Context, id string) (*model.Track, error) {
	tr, err := scanTrack(q.db.QueryRow(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get track", err)
	}
	return tr, nil
}

func (q queries) ListTracks(ctx context.Context, eventID string) ([]model.Track, error) {
	rows, err := q.db.Query(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE event_id = $1 ORDER BY name`, eventID)
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

// LockTrack locks the track row. Holding it serializes every session write
// that targets the track.
func (t *tx) LockTrack(ctx context.Context, id string) (*model.Track, error) {
	tr, err := scanTrack(t.db.QueryRow(ctx,
		`SELECT `+trackColumns+` FROM tracks WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, wrap("lock track row", err)
	}
	return tr, nil
}

func (t *tx) InsertTrack(ctx context.Context, tr *model.Track) error {
	_, err := t.db.Exec(ctx,
		`INSERT INTO tracks (`+trackColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		tr.ID, tr.EventID, tr.Name, tr.Description, tr.Color, tr.Room, tr.CreatedAt, tr.UpdatedAt,
	)
	if err != nil {
		return wrap("insert track", err)
	}
	return nil
}

func (t *tx) DeleteTrack(ctx context.Context, id string) error {
	if _, err := t.db.Exec(ctx,
		`UPDATE sessions SET track_id = NULL, updated_at = $2 WHERE track_id = $1`, id, now(),
	); err != nil {
		return wrap("detach track sessions", err)
	}
	tag, err := t.db.Exec(ctx, `DELETE FROM tracks WHERE id = $1`, id)
	if err != nil {
		return wrap("delete track", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete track: %w", repository.ErrNotFound)
	}
	return nil
}

// ─── Speakers ─────────────────────────────────────────────────────────────────

const speakerColumns = `id, user_id, name, email, bio, title, company, created_at, updated_at`

func scanSpeaker(row scanner) (*model.Speaker, error) {
	var sp model.Speaker
	err := row.Scan(&sp.ID, &sp.UserID, &sp.Name, &sp.Email, &sp.Bio, &sp.Title, &sp.Company,
		&sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &sp, nil
}

func (q queries) GetSpeaker(ctx context.Context, id string) (*model.Speaker, error) {
	sp, err := scanSpeaker(q.db.QueryRow(ctx,
		`SELECT `+speakerColumns+` FROM speakers WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get speaker", err)
	}
	return sp, nil
}

func (q queries) ListSpeakers(ctx context.Context) ([]model.Speaker, error) {
	rows, err := q.db.Query(ctx, `SELECT `+speakerColumns+` FROM speakers ORDER BY name, id`)
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
	_, err := t.db.Exec(ctx,
		`INSERT INTO speakers (`+speakerColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sp.ID, sp.UserID, sp.Name, sp.Email, sp.Bio, sp.Title, sp.Company, sp.CreatedAt, sp.UpdatedAt,
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
	rows, err := t.db.Query(ctx, `SELECT id FROM speakers WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, wrap("check speakers", err)
	}
	found, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
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
	var s model.Session
	err := row.Scan(&s.ID, &s.EventID, &s.TrackID, &s.Title, &s.Description, &s.Format, &s.Level,
		&s.StartTime, &s.EndTime, &s.DurationMinutes, &s.Room, &s.MaxAttendees, &s.Tags,
		&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (q queries) collectSessions(ctx context.Context, op, sql string, a ...any) ([]model.Session, error) {
	rows, err := q.db.Query(ctx, sql, a...)
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
	rows.Close()

	if err := q.attachSpeakers(ctx, sessions); err != nil {
		return nil, err
	}
	return sessions, nil
}

// attachSpeakers fills SpeakerIDs for every session in one query.
func (q queries) attachSpeakers(ctx context.Context, sessions []model.Session) error {
	if len(sessions) == 0 {
		return nil
	}
	ids := make([]string, len(sessions))
	index := make(map[string]int, len(sessions))
	for i := range sessions {
		ids[i] = sessions[i].ID
		index[sessions[i].ID] = i
		sessions[i].SpeakerIDs = []string{}
	}

	rows, err := q.db.Query(ctx,
		`SELECT session_id, speaker_id FROM session_speakers
		 WHERE session_id = ANY($1) ORDER BY speaker_id`, ids)
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

func (q queries) getSession(ctx context.Context, op, sql, id string) (*model.Session, error) {
	s, err := scanSession(q.db.QueryRow(ctx, sql, id))
	if err != nil {
		return nil, wrap(op, err)
	}
	one := []model.Session{*s}
	if err := q.attachSpeakers(ctx, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

func (q queries) GetSession(ctx context.Context, id string) (*model.Session, error) {
	return q.getSession(ctx, "get session",
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
}

func (t *tx) LockSession(ctx context.Context, id string) (*model.Session, error) {
	return t.getSession(ctx, "lock session row",
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 FOR UPDATE`, id)
}

func (q queries) ListSessions(ctx context.Context, f repository.SessionFilter) ([]model.Session, error) {
	var (
		a     args
		where []string
	)
	if f.EventID != "" {
		where = append(where, "event_id = "+a.add(f.EventID))
	}
	if f.SpeakerID != "" {
		where = append(where, "id IN (SELECT session_id FROM session_speakers WHERE speaker_id = "+a.add(f.SpeakerID)+")")
	}
	if !f.ActiveAt.IsZero() {
		p := a.add(f.ActiveAt)
		where = append(where, "start_time <= "+p+" AND end_time >= "+p)
	}
	if !f.StartsFrom.IsZero() {
		where = append(where, "start_time >= "+a.add(f.StartsFrom))
	}

	sql := `SELECT ` + sessionColumns + ` FROM sessions`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY start_time, id"
	if f.Limit > 0 {
		sql += " LIMIT " + a.add(f.Limit)
	}
	return q.collectSessions(ctx, "list sessions", sql, a...)
}

func (q queries) ListTrackSessions(ctx context.Context, eventID, trackID string) ([]model.Session, error) {
	return q.collectSessions(ctx, "list track sessions",
		`SELECT `+sessionColumns+` FROM sessions
		 WHERE event_id = $1 AND track_id = $2
		 ORDER BY start_time, id`,
		eventID, trackID)
}

func (t *tx) InsertSession(ctx context.Context, s *model.Session) error {
	_, err := t.db.Exec(ctx,
		`INSERT INTO sessions (`+sessionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		s.ID, s.EventID, s.TrackID, s.Title, s.Description, s.Format, s.Level,
		s.StartTime, s.EndTime, s.DurationMinutes, s.Room, s.MaxAttendees, s.Tags,
		s.CreatedAt, s.UpdatedAt,
	)
	if err != nil {
		return wrap("insert session", err)
	}
	return nil
}

func (t *tx) UpdateSession(ctx context.Context, s *model.Session) error {
	tag, err := t.db.Exec(ctx,
		`UPDATE sessions SET event_id = $2, track_id = $3, title = $4, description = $5,
		        format = $6, level = $7, start_time = $8, end_time = $9, duration_minutes = $10,
		        room = $11, max_attendees = $12, tags = $13, updated_at = $14
		 WHERE id = $1`,
		s.ID, s.EventID, s.TrackID, s.Title, s.Description, s.Format, s.Level,
		s.StartTime, s.EndTime, s.DurationMinutes, s.Room, s.MaxAttendees, s.Tags, s.UpdatedAt,
	)
	if err != nil {
		return wrap("update session", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update session: %w", repository.ErrNotFound)
	}
	return nil
}

func (t *tx) DeleteSession(ctx context.Context, id string) error {
	tag, err := t.db.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return wrap("delete session", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete session: %w", repository.ErrNotFound)
	}
	return nil
}

func (t *tx) ReplaceSessionSpeakers(ctx context.Context, sessionID string, speakerIDs []string) error {
	if _, err := t.db.Exec(ctx, `DELETE FROM session_speakers WHERE session_id = $1`, sessionID); err != nil {
		return wrap("clear session speakers", err)
	}
	if len(speakerIDs) == 0 {
		return nil
	}
	_, err := t.db.Exec(ctx,
		`INSERT INTO session_speakers (session_id, speaker_id)
		 SELECT $1, unnest($2::text[])`,
		sessionID, speakerIDs,
	)
	if err != nil {
		return wrap("insert session speakers", err)
	}
	return nil
}

// ─── Registrations ────────────────────────────────────────────────────────────

const registrationColumns = `id, event_id, attendee_id, status, registration_date,
	confirmation_date, dietary_requirements, special_requests, updated_at`

func scanRegistration(row scanner) (*model.Registration, error) {
	var (
		r      model.Registration
		status string
	)
	err := row.Scan(&r.ID, &r.EventID, &r.AttendeeID, &status, &r.RegistrationDate,
		&r.ConfirmationDate, &r.DietaryRequirements, &r.SpecialRequests, &r.UpdatedAt)
	if err != nil {
		return nil, err
	}
	r.Status = model.RegistrationStatus(status)
	return &r, nil
}

func (q queries) GetRegistration(ctx context.Context, id string) (*model.Registration, error) {
	r, err := scanRegistration(q.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
	if err != nil {
		return nil, wrap("get registration", err)
	}
	return r, nil
}

func (q queries) ListRegistrations(ctx context.Context, f repository.RegistrationFilter) ([]model.Registration, error) {
	var (
		a     args
		where []string
	)
	if f.EventID != "" {
		where = append(where, "event_id = "+a.add(f.EventID))
	}
	if f.AttendeeID != "" {
		where = append(where, "attendee_id = "+a.add(f.AttendeeID))
	}
	if f.Status != "" {
		where = append(where, "status = "+a.add(string(f.Status)))
	}
	sql := `SELECT ` + registrationColumns + ` FROM registrations`
	if len(where) > 0 {
		sql += " WHERE " + strings.Join(where, " AND ")
	}
	sql += " ORDER BY registration_date ASC, id"

	rows, err := q.db.Query(ctx, sql, a...)
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
	r, err := scanRegistration(t.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, wrap("lock registration row", err)
	}
	return r, nil
}

func (t *tx) FindActiveRegistration(ctx context.Context, eventID, attendeeID string) (*model.Registration, error) {
	r, err := scanRegistration(t.db.QueryRow(ctx,
		`SELECT `+registrationColumns+` FROM registrations
		 WHERE event_id = $1 AND attendee_id = $2 AND status <> 'cancelled'`,
		eventID, attendeeID))
	if err != nil {
		return nil, wrap("find active registration", err)
	}
	return r, nil
}

func (t *tx) CountActiveRegistrations(ctx context.Context, eventID string) (int, error) {
	var n int
	err := t.db.QueryRow(ctx,
		`SELECT COUNT(*) FROM registrations WHERE event_id = $1 AND status <> 'cancelled'`,
		eventID,
	).Scan(&n)
	if err != nil {
		return 0, wrap("count active registrations", err)
	}
	return n, nil
}

func (t *tx) InsertRegistration(ctx context.Context, r *model.Registration) error {
	_, err := t.db.Exec(ctx,
		`INSERT INTO registrations (`+registrationColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		r.ID, r.EventID, r.AttendeeID, string(r.Status), r.RegistrationDate,
		r.ConfirmationDate, r.DietaryRequirements, r.SpecialRequests, r.UpdatedAt,
	)
	if err != nil {
		return wrap("insert registration", err)
	}
	return nil
}

func (t *tx) UpdateRegistration(ctx context.Context, r *model.Registration) error {
	tag, err := t.db.Exec(ctx,
		`UPDATE registrations SET status = $2, confirmation_date = $3,
		        dietary_requirements = $4, special_requests = $5, updated_at = $6
		 WHERE id = $1`,
		r.ID, string(r.Status), r.ConfirmationDate, r.DietaryRequirements, r.SpecialRequests, r.UpdatedAt,
	)
	if err != nil {
		return wrap("update registration", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update registration: %w", repository.ErrNotFound)
	}
	return nil
}
