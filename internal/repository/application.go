package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joseph-ayodele/jobfit/constants"
	"github.com/joseph-ayodele/jobfit/internal/common"
	"github.com/joseph-ayodele/jobfit/internal/entity"
	"github.com/joseph-ayodele/jobfit/internal/llm"
	"github.com/joseph-ayodele/jobfit/internal/utils"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
	maxKeyLength     = 255
)

// CommitRequest wraps everything persisted for one posting.
type CommitRequest struct {
	Key       string
	Record    llm.JobRecord
	RawRecord []byte // canonical extraction payload; Record is marshaled when empty
	Feedback  *llm.FeedbackRecord
	Tailored  *llm.TailoredBullets
}

type ApplicationRepository interface {
	IsProcessed(ctx context.Context, key string) (bool, error)
	Commit(ctx context.Context, req *CommitRequest) error
	Get(ctx context.Context, key string) (*entity.Application, error)
	ListRecent(ctx context.Context, limit int) ([]*entity.Application, error)
}

type applicationRepository struct {
	db     *DB
	logger *slog.Logger
}

func NewApplicationRepository(db *DB, logger *slog.Logger) ApplicationRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &applicationRepository{
		db:     db,
		logger: logger,
	}
}

func (r *applicationRepository) IsProcessed(ctx context.Context, key string) (bool, error) {
	var n int
	err := r.db.SQL.QueryRowContext(ctx,
		r.db.Rebind(`SELECT COUNT(1) FROM job_applications WHERE id = ?`), key).Scan(&n)
	if err != nil {
		r.logger.Error("repo.is_processed.failed", "key", key, "error", err)
		return false, common.NewAppError(common.CodePersist, "check idempotency key", errors.Join(common.ErrPersist, err))
	}
	return n > 0, nil
}

// Commit writes the company, the application row and its skill links in one
// transaction. A key that already exists yields common.ErrAlreadyProcessed;
// every other failure yields common.ErrPersist. Nothing is written on error.
func (r *applicationRepository) Commit(ctx context.Context, req *CommitRequest) error {
	if req == nil {
		return persistErr("commit request is nil", common.ErrInvalidInput)
	}
	key := req.Key
	company := strings.TrimSpace(req.Record.Company)

	v := common.NewValidator()
	v.Field("key", key, common.Required, common.MaxLength(maxKeyLength))
	v.Field("company", company, common.Required)
	if err := v.Err(); err != nil {
		r.logger.Warn("repo.commit.invalid", "key", key, "error", err)
		return persistErr(v.ErrorMessage(), err)
	}

	raw := req.RawRecord
	if len(raw) == 0 {
		b, err := json.Marshal(req.Record)
		if err != nil {
			return persistErr("encode job record", err)
		}
		raw = b
	}
	feedback, atsScore, err := encodeFeedback(req.Feedback)
	if err != nil {
		return persistErr("encode feedback", err)
	}
	tailored, err := encodeOptional(req.Tailored)
	if err != nil {
		return persistErr("encode tailored bullets", err)
	}

	start := time.Now()
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Error("repo.commit.begin_failed", "key", key, "error", err)
		return persistErr("begin transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	companyID, err := r.resolveCompany(ctx, tx, company)
	if err != nil {
		r.logger.Error("repo.commit.company_failed", "key", key, "company", company, "error", err)
		return persistErr("upsert company", err)
	}

	rec := req.Record
	var compMin, compMax sql.NullFloat64
	var compCurrency sql.NullString
	if rec.Compensation != nil {
		compMin = utils.NullFloat(rec.Compensation.Min)
		compMax = utils.NullFloat(rec.Compensation.Max)
		compCurrency = utils.NullString(rec.Compensation.Currency)
	}

	res, err := tx.ExecContext(ctx, r.db.Rebind(`
INSERT INTO job_applications (
  id, company_id, position_name, position_level, location, remote_status,
  compensation_min, compensation_max, compensation_currency,
  raw_json, feedback, tailored_bullets, ats_score
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT DO NOTHING`),
		key, companyID, strings.TrimSpace(rec.Position.Name), utils.NullString(string(rec.Position.Level)),
		utils.NullString(rec.Location), utils.NullString(string(RemoteStatus(rec))),
		compMin, compMax, compCurrency,
		string(raw), feedback, tailored, atsScore,
	)
	if err != nil {
		r.logger.Error("repo.commit.insert_failed", "key", key, "error", err)
		return persistErr("insert job application", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return persistErr("insert job application", err)
	}
	if n == 0 {
		r.logger.Info("repo.commit.already_processed", "key", key)
		return common.NewAppError(common.CodeAlreadyProcessed, "job application "+key+" already exists", common.ErrAlreadyProcessed)
	}

	linked := 0
	seen := make(map[string]struct{}, len(rec.Skills))
	for _, s := range rec.Skills {
		name := strings.TrimSpace(s.Name)
		fold := NameKey(name)
		if name == "" {
			continue
		}
		if _, dup := seen[fold]; dup {
			continue
		}
		seen[fold] = struct{}{}

		skillID, err := r.resolveSkill(ctx, tx, name, s.Type)
		if err != nil {
			r.logger.Error("repo.commit.skill_failed", "key", key, "skill", name, "error", err)
			return persistErr("upsert skill "+name, err)
		}
		_, err = tx.ExecContext(ctx, r.db.Rebind(`
INSERT INTO job_skills (job_id, skill_id, priority, is_must_have, years_required, proficiency_level, context, ordinal)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			key, skillID, clampPriority(s.Priority), s.IsMustHave, utils.NullInt(s.YearsRequired),
			utils.NullString(s.ProficiencyLevel), s.Context, linked,
		)
		if err != nil {
			r.logger.Error("repo.commit.link_failed", "key", key, "skill", name, "error", err)
			return persistErr("link skill "+name, err)
		}
		linked++
	}

	if err := tx.Commit(); err != nil {
		r.logger.Error("repo.commit.failed", "key", key, "error", err)
		return persistErr("commit transaction", err)
	}
	r.logger.Info("repo.commit.ok",
		"key", key,
		"company_id", companyID,
		"skills", linked,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return nil
}

// NameKey is the case-insensitive identity of a company or skill name.
func NameKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// resolveCompany inserts name when absent and returns the id of the row that
// matches it case-insensitively.
func (r *applicationRepository) resolveCompany(ctx context.Context, tx *sql.Tx, name string) (int64, error) {
	k := NameKey(name)
	if _, err := tx.ExecContext(ctx, r.db.Rebind(`INSERT INTO companies (name, name_key) VALUES (?, ?) ON CONFLICT DO NOTHING`), name, k); err != nil {
		return 0, err
	}
	var id int64
	err := tx.QueryRowContext(ctx, r.db.Rebind(`SELECT id FROM companies WHERE name_key = ?`), k).Scan(&id)
	return id, err
}

// resolveSkill keeps the first type a skill was stored with.
func (r *applicationRepository) resolveSkill(ctx context.Context, tx *sql.Tx, name string, t constants.SkillType) (int64, error) {
	st, _ := constants.CanonicalizeSkillType(string(t))
	k := NameKey(name)
	if _, err := tx.ExecContext(ctx, r.db.Rebind(`INSERT INTO skills (name, name_key, type) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`), name, k, string(st)); err != nil {
		return 0, err
	}
	var id int64
	err := tx.QueryRowContext(ctx, r.db.Rebind(`SELECT id FROM skills WHERE name_key = ?`), k).Scan(&id)
	return id, err
}

const selectApplication = `
SELECT a.id, a.company_id, c.name, a.position_name, a.position_level, a.location, a.remote_status,
       a.compensation_min, a.compensation_max, a.compensation_currency,
       a.raw_json, a.feedback, a.tailored_bullets, a.ats_score, a.created_at
FROM job_applications a
JOIN companies c ON c.id = a.company_id`

func (r *applicationRepository) Get(ctx context.Context, key string) (*entity.Application, error) {
	row := r.db.SQL.QueryRowContext(ctx, r.db.Rebind(selectApplication+` WHERE a.id = ?`), key)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError(common.CodeNotFound, "job application "+key+" not found", common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("repo.get.failed", "key", key, "error", err)
		return nil, common.NewAppError(common.CodePersist, "load job application", errors.Join(common.ErrDatabase, err))
	}
	if app.Skills, err = r.loadSkills(ctx, key); err != nil {
		r.logger.Error("repo.get.skills_failed", "key", key, "error", err)
		return nil, common.NewAppError(common.CodePersist, "load job skills", errors.Join(common.ErrDatabase, err))
	}
	return app, nil
}

func (r *applicationRepository) ListRecent(ctx context.Context, limit int) ([]*entity.Application, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := r.db.SQL.QueryContext(ctx, r.db.Rebind(selectApplication+` ORDER BY a.created_at DESC, a.id ASC LIMIT ?`), limit)
	if err != nil {
		r.logger.Error("repo.list.failed", "error", err)
		return nil, common.NewAppError(common.CodePersist, "list job applications", errors.Join(common.ErrDatabase, err))
	}
	var apps []*entity.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			_ = rows.Close()
			return nil, common.NewAppError(common.CodePersist, "scan job application", errors.Join(common.ErrDatabase, err))
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, common.NewAppError(common.CodePersist, "list job applications", errors.Join(common.ErrDatabase, err))
	}
	// sqlite runs on a single connection, so the cursor must be closed before the next query.
	_ = rows.Close()

	for _, app := range apps {
		if app.Skills, err = r.loadSkills(ctx, app.Key); err != nil {
			return nil, common.NewAppError(common.CodePersist, "load job skills", errors.Join(common.ErrDatabase, err))
		}
	}
	return apps, nil
}

func (r *applicationRepository) loadSkills(ctx context.Context, key string) ([]entity.SkillLink, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.Rebind(`
SELECT s.id, s.name, s.type, js.priority, js.is_must_have, js.years_required, js.proficiency_level, js.context
FROM job_skills js
JOIN skills s ON s.id = js.skill_id
WHERE js.job_id = ?
ORDER BY js.ordinal`), key)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []entity.SkillLink
	for rows.Next() {
		var (
			l           entity.SkillLink
			years       sql.NullInt64
			proficiency sql.NullString
			phrase      sql.NullString
		)
		if err := rows.Scan(&l.SkillID, &l.Name, &l.Type, &l.Priority, &l.IsMustHave, &years, &proficiency, &phrase); err != nil {
			return nil, err
		}
		l.YearsRequired = utils.IntPtr(years)
		l.ProficiencyLevel = proficiency.String
		l.Context = phrase.String
		out = append(out, l)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanApplication(row rowScanner) (*entity.Application, error) {
	var (
		a                             entity.Application
		level, location, remote, curr sql.NullString
		compMin, compMax, ats         sql.NullFloat64
		raw                           string
		feedback, tailored            sql.NullString
		created                       dbTime
	)
	err := row.Scan(&a.Key, &a.CompanyID, &a.Company, &a.PositionName, &level, &location, &remote,
		&compMin, &compMax, &curr, &raw, &feedback, &tailored, &ats, &created)
	if err != nil {
		return nil, err
	}
	a.PositionLevel = level.String
	a.Location = location.String
	a.RemoteStatus = remote.String
	a.CompensationMin = utils.FloatPtr(compMin)
	a.CompensationMax = utils.FloatPtr(compMax)
	a.CompensationCurrency = curr.String
	a.ATSScore = utils.FloatPtr(ats)
	a.RawJSON = json.RawMessage(raw)
	a.Feedback = utils.RawOrNil(feedback)
	a.TailoredBullets = utils.RawOrNil(tailored)
	a.CreatedAt = created.t
	return &a, nil
}

// RemoteStatus derives the stored work mode: an explicit remote flag wins,
// otherwise it is inferred from the location and position text.
func RemoteStatus(rec llm.JobRecord) constants.WorkMode {
	inferred := constants.InferWorkMode(rec.Location, rec.Position.Name)
	if rec.Remote == nil {
		return inferred
	}
	if *rec.Remote {
		return constants.WorkModeRemote
	}
	if inferred == constants.WorkModeHybrid {
		return inferred
	}
	return constants.WorkModeOnsite
}

func clampPriority(p int) int {
	switch {
	case p == 0:
		return constants.DefaultSkillPriority
	case p < constants.MinSkillPriority:
		return constants.MinSkillPriority
	case p > constants.MaxSkillPriority:
		return constants.MaxSkillPriority
	}
	return p
}

func encodeFeedback(fb *llm.FeedbackRecord) (sql.NullString, sql.NullFloat64, error) {
	if fb == nil {
		return sql.NullString{}, sql.NullFloat64{}, nil
	}
	b, err := json.Marshal(fb)
	if err != nil {
		return sql.NullString{}, sql.NullFloat64{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, sql.NullFloat64{Float64: fb.OverallScore, Valid: true}, nil
}

func encodeOptional[T any](v *T) (sql.NullString, error) {
	if v == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func persistErr(msg string, cause error) error {
	return common.NewAppError(common.CodePersist, msg, errors.Join(common.ErrPersist, cause))
}

// dbTime scans timestamps from either driver: postgres yields time.Time,
// sqlite yields the CURRENT_TIMESTAMP text.
type dbTime struct{ t time.Time }

var sqliteTimeLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
}

func (d *dbTime) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		d.t = time.Time{}
		return nil
	case time.Time:
		d.t = x
		return nil
	case []byte:
		return d.parse(string(x))
	case string:
		return d.parse(x)
	}
	return fmt.Errorf("unsupported timestamp type %T", v)
}

func (d *dbTime) parse(s string) error {
	for _, layout := range sqliteTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}
