package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" database/sql driver
	_ "github.com/lib/pq"              // registers the "postgres" database/sql driver
	_ "modernc.org/sqlite"             // pure go sqlite driver

	"github.com/KaramelBytes/socstudy-cli/internal/study"
)

const (
	DriverSQLite   = "sqlite"
	DriverPgx      = "pgx"
	DriverPostgres = "postgres"
)

// schema mirrors the study export tables. Day and value columns are text in
// the upstream export and are cast on read.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS studies (
		study_number TEXT PRIMARY KEY,
		curated_study_number TEXT,
		curated_study_name TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS animals (
		study_number TEXT NOT NULL,
		group_name TEXT NOT NULL,
		animal_name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS measurements (
		study_number TEXT NOT NULL,
		group_name TEXT NOT NULL,
		animal_name TEXT NOT NULL,
		measurement_day TEXT NOT NULL,
		measurement_value TEXT NOT NULL,
		activity TEXT,
		measurement_units TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS treatments (
		study_number TEXT NOT NULL,
		group_name TEXT NOT NULL,
		animal_name TEXT NOT NULL,
		treatment_day TEXT NOT NULL,
		dose_activity TEXT,
		test_material_amount DOUBLE PRECISION,
		administration_route_units TEXT
	)`,
	`CREATE TABLE IF NOT EXISTS "groups" (
		study_number TEXT NOT NULL,
		group_name TEXT NOT NULL,
		curated_group_name TEXT,
		drug TEXT,
		recist TEXT,
		is_control INTEGER,
		color TEXT
	)`,
}

// SQLSource reads studies from a database with the study export schema.
type SQLSource struct {
	db     *sql.DB
	driver string
	filter Filter
}

// NewSQLite opens a SQLite database file.
func NewSQLite(path string, f Filter) (*SQLSource, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	return Open(DriverSQLite, path, f)
}

// NewPostgres opens a Postgres database through pgx (default) or lib/pq.
func NewPostgres(dsn, driver string, f Filter) (*SQLSource, error) {
	if dsn == "" {
		return nil, errors.New("postgres dsn is required")
	}
	switch driver {
	case "":
		driver = DriverPgx
	case DriverPgx, DriverPostgres:
	default:
		return nil, fmt.Errorf("unsupported postgres driver %q (want pgx or postgres)", driver)
	}
	return Open(driver, dsn, f)
}

// Open opens a database with a registered driver and pings it.
func Open(driver, dsn string, f Filter) (*SQLSource, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return NewSQL(db, driver, f), nil
}

// NewSQL wraps an open handle.
func NewSQL(db *sql.DB, driver string, f Filter) *SQLSource {
	return &SQLSource{db: db, driver: driver, filter: f}
}

func (s *SQLSource) Close() error { return s.db.Close() }

// EnsureSchema creates the study tables when missing.
func (s *SQLSource) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
	}
	return nil
}

// rebind rewrites "?" placeholders to "$n" for postgres drivers.
func (s *SQLSource) rebind(q string) string {
	if s.driver == DriverSQLite {
		return q
	}
	var sb strings.Builder
	n := 0
	for _, c := range q {
		if c == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(c)
	}
	return sb.String()
}

func (s *SQLSource) ListStudies(ctx context.Context) ([]study.Info, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT study_number, COALESCE(curated_study_number, ''), COALESCE(curated_study_name, '')
		FROM studies ORDER BY study_number`)
	if err != nil {
		return nil, fmt.Errorf("select studies: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []study.Info
	for rows.Next() {
		var info study.Info
		if err := rows.Scan(&info.StudyNumber, &info.CuratedNumber, &info.CuratedName); err != nil {
			return nil, fmt.Errorf("scan study: %w", err)
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// findStudy resolves a curated study number first, then a raw one.
func (s *SQLSource) findStudy(ctx context.Context, id string) (study.Info, error) {
	var info study.Info
	for _, col := range []string{"curated_study_number", "study_number"} {
		q := s.rebind(`SELECT study_number, COALESCE(curated_study_number, ''), COALESCE(curated_study_name, '')
			FROM studies WHERE ` + col + ` = ?`)
		err := s.db.QueryRowContext(ctx, q, id).Scan(&info.StudyNumber, &info.CuratedNumber, &info.CuratedName)
		if err == nil {
			return info, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return info, fmt.Errorf("select study: %w", err)
		}
	}
	return info, fmt.Errorf("%w: %s", ErrStudyNotFound, id)
}

func (s *SQLSource) Load(ctx context.Context, studyID string) (*study.Input, error) {
	info, err := s.findStudy(ctx, studyID)
	if err != nil {
		return nil, err
	}
	in := &study.Input{Study: info}
	num := info.StudyNumber
	if in.Animals, err = s.animals(ctx, num); err != nil {
		return nil, err
	}
	if in.Measurements, err = s.measurements(ctx, num); err != nil {
		return nil, err
	}
	if in.Treatments, err = s.treatments(ctx, num); err != nil {
		return nil, err
	}
	if in.GroupLabels, err = s.groupLabels(ctx, num); err != nil {
		return nil, err
	}
	return in, nil
}

func (s *SQLSource) animals(ctx context.Context, num string) ([]study.AnimalSeed, error) {
	// Insertion order; Normalize applies the collated sort.
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT group_name, animal_name FROM animals
		WHERE study_number = ?`), num)
	if err != nil {
		return nil, fmt.Errorf("select animals: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []study.AnimalSeed
	for rows.Next() {
		var a study.AnimalSeed
		if err := rows.Scan(&a.GroupName, &a.AnimalName); err != nil {
			return nil, fmt.Errorf("scan animal: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (s *SQLSource) measurements(ctx context.Context, num string) ([]study.Measurement, error) {
	q := `SELECT group_name, animal_name,
			CAST(measurement_day AS DOUBLE PRECISION), CAST(measurement_value AS DOUBLE PRECISION)
		FROM measurements WHERE study_number = ?`
	args := []any{num}
	if len(s.filter.Activities) > 0 {
		q += ` AND activity IN (?` + strings.Repeat(`, ?`, len(s.filter.Activities)-1) + `)`
		for _, a := range s.filter.Activities {
			args = append(args, a)
		}
	}
	if s.filter.Units != "" {
		q += ` AND measurement_units = ?`
		args = append(args, s.filter.Units)
	}
	q += ` ORDER BY CAST(measurement_day AS DOUBLE PRECISION), animal_name`

	rows, err := s.db.QueryContext(ctx, s.rebind(q), args...)
	if err != nil {
		return nil, fmt.Errorf("select measurements: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []study.Measurement
	for rows.Next() {
		var m study.Measurement
		var day float64
		if err := rows.Scan(&m.GroupName, &m.AnimalName, &day, &m.Value); err != nil {
			return nil, fmt.Errorf("scan measurement: %w", err)
		}
		if m.Day, err = integralDay(day); err != nil {
			return nil, fmt.Errorf("measurement for %s: %w", m.AnimalName, err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLSource) treatments(ctx context.Context, num string) ([]study.Treatment, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT group_name, animal_name,
			CAST(treatment_day AS DOUBLE PRECISION), COALESCE(dose_activity, ''),
			test_material_amount, COALESCE(administration_route_units, '')
		FROM treatments WHERE study_number = ?
		ORDER BY CAST(treatment_day AS DOUBLE PRECISION), animal_name`), num)
	if err != nil {
		return nil, fmt.Errorf("select treatments: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []study.Treatment
	for rows.Next() {
		var t study.Treatment
		var day float64
		var amount sql.NullFloat64
		if err := rows.Scan(&t.GroupName, &t.AnimalName, &day, &t.DoseActivity, &amount, &t.RouteUnits); err != nil {
			return nil, fmt.Errorf("scan treatment: %w", err)
		}
		if t.Day, err = integralDay(day); err != nil {
			return nil, fmt.Errorf("treatment for %s: %w", t.AnimalName, err)
		}
		t.Amount = math.NaN()
		if amount.Valid {
			t.Amount = amount.Float64
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *SQLSource) groupLabels(ctx context.Context, num string) ([]study.GroupLabel, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(`SELECT group_name, COALESCE(curated_group_name, ''),
			COALESCE(drug, ''), COALESCE(recist, ''), COALESCE(is_control, 0), COALESCE(color, '')
		FROM "groups" WHERE study_number = ? ORDER BY group_name`), num)
	if err != nil {
		return nil, fmt.Errorf("select groups: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []study.GroupLabel
	for rows.Next() {
		var l study.GroupLabel
		var ctrl int64
		if err := rows.Scan(&l.GroupName, &l.CuratedName, &l.Drug, &l.Recist, &ctrl, &l.Color); err != nil {
			return nil, fmt.Errorf("scan group: %w", err)
		}
		l.IsControl = ctrl != 0
		out = append(out, l)
	}
	return out, rows.Err()
}

// Import replaces the stored records of in.Study.StudyNumber with in.
// Measurements are tagged with the first filtered activity and the filter
// units so Load returns them.
func (s *SQLSource) Import(ctx context.Context, in *study.Input) (err error) {
	num := in.Study.StudyNumber
	if num == "" {
		return fmt.Errorf("study number is required: %w", study.ErrInvalidRecord)
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()
	exec := func(q string, args ...any) error {
		if _, err := tx.ExecContext(ctx, s.rebind(q), args...); err != nil {
			return fmt.Errorf("import %s: %w", num, err)
		}
		return nil
	}
	for _, table := range []string{"studies", "animals", "measurements", "treatments", `"groups"`} {
		if err = exec(`DELETE FROM `+table+` WHERE study_number = ?`, num); err != nil {
			return err
		}
	}
	if err = exec(`INSERT INTO studies (study_number, curated_study_number, curated_study_name) VALUES (?, ?, ?)`,
		num, in.Study.CuratedNumber, in.Study.CuratedName); err != nil {
		return err
	}
	for _, a := range in.Animals {
		if err = exec(`INSERT INTO animals (study_number, group_name, animal_name) VALUES (?, ?, ?)`,
			num, a.GroupName, a.AnimalName); err != nil {
			return err
		}
	}
	activity, units := DefaultFilter().Activities[0], s.filter.Units
	if len(s.filter.Activities) > 0 {
		activity = s.filter.Activities[0]
	}
	for _, m := range in.Measurements {
		if err = exec(`INSERT INTO measurements (study_number, group_name, animal_name, measurement_day, measurement_value, activity, measurement_units)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			num, m.GroupName, m.AnimalName, strconv.Itoa(m.Day), strconv.FormatFloat(m.Value, 'f', -1, 64), activity, units); err != nil {
			return err
		}
	}
	for _, t := range in.Treatments {
		if err = exec(`INSERT INTO treatments (study_number, group_name, animal_name, treatment_day, dose_activity, test_material_amount, administration_route_units)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			num, t.GroupName, t.AnimalName, strconv.Itoa(t.Day), t.DoseActivity, nullableAmount(t.Amount), t.RouteUnits); err != nil {
			return err
		}
	}
	for _, l := range in.GroupLabels {
		ctrl := 0
		if l.IsControl {
			ctrl = 1
		}
		var color any
		if l.Color != "" {
			color = l.Color
		}
		if err = exec(`INSERT INTO "groups" (study_number, group_name, curated_group_name, drug, recist, is_control, color)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			num, l.GroupName, l.CuratedName, l.Drug, l.Recist, ctrl, color); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit import: %w", err)
	}
	return nil
}

// nullableAmount stores a missing dose amount as NULL.
func nullableAmount(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
