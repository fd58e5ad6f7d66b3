package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/hackgods/therapy-center-scheduling/internal/config"
	"github.com/hackgods/therapy-center-scheduling/internal/db"
	"github.com/hackgods/therapy-center-scheduling/internal/logging"
	"github.com/hackgods/therapy-center-scheduling/internal/plan"
)

type SimConfig struct {
	APIBaseURL   string
	Duration     time.Duration
	Workers      int
	SessionRatio float64
	ProgramRatio float64
	ApproveRatio float64
	ReadRatio    float64
	PatientLimit int
	DateWindow   int // booking dates are drawn from the next DateWindow days
	PostgresDSN  string
}

type doctorRef struct {
	ID    uuid.UUID
	Slots []string
}

// DataPool holds seeded ids loaded at startup plus the sessions and programs
// created while the simulation runs.
type DataPool struct {
	Patients  []uuid.UUID
	Centers   []uuid.UUID
	Doctors   map[uuid.UUID][]doctorRef // by center
	Templates []string

	mu       sync.RWMutex
	sessions []uuid.UUID
}

func (dp *DataPool) AddSession(id uuid.UUID) {
	dp.mu.Lock()
	defer dp.mu.Unlock()
	dp.sessions = append(dp.sessions, id)
}

func (dp *DataPool) RandomSession(rng *rand.Rand) (uuid.UUID, bool) {
	dp.mu.RLock()
	defer dp.mu.RUnlock()
	if len(dp.sessions) == 0 {
		return uuid.Nil, false
	}
	return dp.sessions[rng.Intn(len(dp.sessions))], true
}

type OperationMetrics struct {
	Total     int64
	Success   int64
	Conflict  int64
	Error     int64
	Latencies []time.Duration
	mu        sync.Mutex
}

func (om *OperationMetrics) Record(latency time.Duration, success bool, conflict bool) {
	atomic.AddInt64(&om.Total, 1)
	if success {
		atomic.AddInt64(&om.Success, 1)
	} else if conflict {
		atomic.AddInt64(&om.Conflict, 1)
	} else {
		atomic.AddInt64(&om.Error, 1)
	}

	om.mu.Lock()
	om.Latencies = append(om.Latencies, latency)
	om.mu.Unlock()
}

func (om *OperationMetrics) Stats() (avg, min, max, p50, p95 time.Duration) {
	om.mu.Lock()
	defer om.mu.Unlock()

	if len(om.Latencies) == 0 {
		return 0, 0, 0, 0, 0
	}

	latencies := make([]time.Duration, len(om.Latencies))
	copy(latencies, om.Latencies)
	sort.Slice(latencies, func(i, j int) bool {
		return latencies[i] < latencies[j]
	})

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	avg = sum / time.Duration(len(latencies))
	min = latencies[0]
	max = latencies[len(latencies)-1]
	p50 = latencies[percentileIndex(len(latencies), 50)]
	p95 = latencies[percentileIndex(len(latencies), 95)]
	return avg, min, max, p50, p95
}

func percentileIndex(n, p int) int {
	idx := n * p / 100
	if idx >= n {
		idx = n - 1
	}
	return idx
}

type Metrics struct {
	BookSession    OperationMetrics
	ApproveSession OperationMetrics
	BookProgram    OperationMetrics
	ReadSession    OperationMetrics
	ListByPatient  OperationMetrics
	Availability   OperationMetrics
}

type Simulator struct {
	config  SimConfig
	pool    *DataPool
	client  *http.Client
	metrics Metrics
	logger  zerolog.Logger
}

func main() {
	baseCfg, err := config.Load()
	if err != nil {
		logging.Bootstrap().Fatal().Err(err).Msg("failed to load base config")
	}
	logger := logging.New(baseCfg.Env, baseCfg.LogLevel, baseCfg.Version)

	cfg := loadConfig(baseCfg)
	if err := validateConfig(cfg); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	logger.Info().
		Dur("duration", cfg.Duration).
		Int("workers", cfg.Workers).
		Float64("session", cfg.SessionRatio).
		Float64("program", cfg.ProgramRatio).
		Float64("approve", cfg.ApproveRatio).
		Float64("read", cfg.ReadRatio).
		Msg("simulator starting")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pgPool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN, db.PoolOptions{MaxConns: 2})
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	dataPool, err := loadDataPool(ctx, pgPool, cfg)
	pgPool.Close()
	if err != nil {
		logger.Fatal().Err(err).Msg("load data pool")
	}

	logger.Info().
		Int("patients", len(dataPool.Patients)).
		Int("centers", len(dataPool.Centers)).
		Msg("data pool loaded")

	sim := &Simulator{
		config: cfg,
		pool:   dataPool,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}

	sim.Run()
	sim.PrintReport()
}

func loadConfig(base config.Config) SimConfig {
	cfg := SimConfig{
		APIBaseURL:   getEnv("SIM_API_BASE_URL", "http://localhost:8080"),
		Duration:     getDuration("SIM_DURATION", 30*time.Second),
		Workers:      getInt("SIM_WORKERS", 10),
		SessionRatio: getFloat("SIM_SESSION_RATIO", 0.4),
		ProgramRatio: getFloat("SIM_PROGRAM_RATIO", 0.1),
		ApproveRatio: getFloat("SIM_APPROVE_RATIO", 0.2),
		ReadRatio:    getFloat("SIM_READ_RATIO", 0.3),
		PatientLimit: getInt("SIM_PATIENT_LIMIT", 4000),
		DateWindow:   getInt("SIM_DATE_WINDOW", 14),
		PostgresDSN:  base.PostgresDSN,
	}

	total := cfg.SessionRatio + cfg.ProgramRatio + cfg.ApproveRatio + cfg.ReadRatio
	if total > 0 {
		cfg.SessionRatio /= total
		cfg.ProgramRatio /= total
		cfg.ApproveRatio /= total
		cfg.ReadRatio /= total
	}
	return cfg
}

func validateConfig(cfg SimConfig) error {
	if cfg.PostgresDSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required (set in .env or environment)")
	}
	if cfg.Workers <= 0 {
		return fmt.Errorf("SIM_WORKERS must be > 0")
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("SIM_DURATION must be > 0")
	}
	if cfg.DateWindow <= 0 {
		return fmt.Errorf("SIM_DATE_WINDOW must be > 0")
	}
	return nil
}

func loadDataPool(ctx context.Context, pool *pgxpool.Pool, cfg SimConfig) (*DataPool, error) {
	dataPool := &DataPool{Doctors: make(map[uuid.UUID][]doctorRef)}

	rows, err := pool.Query(ctx, `SELECT id FROM patients LIMIT $1`, cfg.PatientLimit)
	if err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		dataPool.Patients = append(dataPool.Patients, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = pool.Query(ctx, `
		SELECT d.id, d.center_id, d.slots
		FROM doctors d
		JOIN centers c ON c.id = d.center_id
		WHERE c.status = 'approved' AND d.active
		ORDER BY d.center_id, d.created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}
	for rows.Next() {
		var (
			doc      doctorRef
			centerID uuid.UUID
		)
		if err := rows.Scan(&doc.ID, &centerID, &doc.Slots); err != nil {
			rows.Close()
			return nil, err
		}
		if _, ok := dataPool.Doctors[centerID]; !ok {
			dataPool.Centers = append(dataPool.Centers, centerID)
		}
		dataPool.Doctors[centerID] = append(dataPool.Doctors[centerID], doc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, t := range plan.Templates() {
		dataPool.Templates = append(dataPool.Templates, t.ID)
	}

	if len(dataPool.Patients) == 0 {
		return nil, fmt.Errorf("no patients loaded")
	}
	if len(dataPool.Centers) == 0 {
		return nil, fmt.Errorf("no approved centers with active doctors")
	}
	return dataPool, nil
}

func (s *Simulator) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.config.Duration)
	defer cancel()

	s.logger.Info().Dur("duration", s.config.Duration).Int("workers", s.config.Workers).Msg("starting simulation")

	var wg sync.WaitGroup
	for i := 0; i < s.config.Workers; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			s.worker(ctx, workerID)
		}(i)
	}

	wg.Wait()
	s.logger.Info().Msg("simulation complete")
}

func (s *Simulator) worker(ctx context.Context, workerID int) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano() + int64(workerID)))

	for {
		select {
		case <-ctx.Done():
			return
		default:
			r := rng.Float64()
			switch {
			case r < s.config.SessionRatio:
				s.doBookSession(ctx, rng)
			case r < s.config.SessionRatio+s.config.ProgramRatio:
				s.doBookProgram(ctx, rng)
			case r < s.config.SessionRatio+s.config.ProgramRatio+s.config.ApproveRatio:
				s.doApproveSession(ctx, rng)
			default:
				switch rng.Intn(3) {
				case 0:
					s.doReadSession(ctx, rng)
				case 1:
					s.doListByPatient(ctx, rng)
				case 2:
					s.doAvailability(ctx, rng)
				}
			}
		}
	}
}

func (s *Simulator) randomDate(rng *rand.Rand) string {
	d := plan.Truncate(time.Now()).AddDate(0, 0, 1+rng.Intn(s.config.DateWindow))
	return plan.FormatDate(d)
}

func (s *Simulator) randomCenter(rng *rand.Rand) uuid.UUID {
	return s.pool.Centers[rng.Intn(len(s.pool.Centers))]
}

func (s *Simulator) randomPatient(rng *rand.Rand) uuid.UUID {
	return s.pool.Patients[rng.Intn(len(s.pool.Patients))]
}

// call issues one request and reports its latency, status and decoded id.
// status is 0 on transport errors.
func (s *Simulator) call(ctx context.Context, method, path string, body any) (time.Duration, int, uuid.UUID) {
	var reader *bytes.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.config.APIBaseURL+path, reader)
	if err != nil {
		return 0, 0, uuid.Nil
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := s.client.Do(req)
	latency := time.Since(start)
	if err != nil {
		return latency, 0, uuid.Nil
	}
	defer resp.Body.Close()

	var out struct {
		ID uuid.UUID `json:"id"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&out)
	return latency, resp.StatusCode, out.ID
}

func (s *Simulator) doBookSession(ctx context.Context, rng *rand.Rand) {
	latency, status, id := s.call(ctx, http.MethodPost, "/sessions", map[string]string{
		"patient_id": s.randomPatient(rng).String(),
		"center_id":  s.randomCenter(rng).String(),
		"therapy":    "Abhyanga",
		"date":       s.randomDate(rng),
	})
	if status == 0 && ctx.Err() != nil {
		return
	}
	if status == http.StatusCreated && id != uuid.Nil {
		s.pool.AddSession(id)
	}
	s.metrics.BookSession.Record(latency, status == http.StatusCreated, status == http.StatusConflict)
}

// doBookProgram creates a program and immediately approves it against a
// random doctor and slot of its center, so concurrent workers race for the
// same doctor spans.
func (s *Simulator) doBookProgram(ctx context.Context, rng *rand.Rand) {
	centerID := s.randomCenter(rng)
	doctors := s.pool.Doctors[centerID]
	doc := doctors[rng.Intn(len(doctors))]
	if len(doc.Slots) == 0 || len(s.pool.Templates) == 0 {
		return
	}

	createLatency, status, programID := s.call(ctx, http.MethodPost, "/programs", map[string]string{
		"patient_id":  s.randomPatient(rng).String(),
		"center_id":   centerID.String(),
		"template_id": s.pool.Templates[rng.Intn(len(s.pool.Templates))],
		"start_date":  s.randomDate(rng),
	})
	if status == 0 && ctx.Err() != nil {
		return
	}
	if status != http.StatusCreated || programID == uuid.Nil {
		s.metrics.BookProgram.Record(createLatency, false, false)
		return
	}

	approveLatency, status, _ := s.call(ctx, http.MethodPost, "/programs/"+programID.String()+"/approve", map[string]string{
		"doctor_id": doc.ID.String(),
		"time_slot": doc.Slots[rng.Intn(len(doc.Slots))],
	})
	if status == 0 && ctx.Err() != nil {
		return
	}
	s.metrics.BookProgram.Record(createLatency+approveLatency, status == http.StatusOK, status == http.StatusConflict)
}

func (s *Simulator) doApproveSession(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomSession(rng)
	if !ok {
		return
	}
	latency, status, _ := s.call(ctx, http.MethodPost, "/sessions/"+id.String()+"/approve", nil)
	if status == 0 && ctx.Err() != nil {
		return
	}
	s.metrics.ApproveSession.Record(latency, status == http.StatusOK, status == http.StatusConflict)
}

func (s *Simulator) doReadSession(ctx context.Context, rng *rand.Rand) {
	id, ok := s.pool.RandomSession(rng)
	if !ok {
		return
	}
	latency, status, _ := s.call(ctx, http.MethodGet, "/sessions/"+id.String(), nil)
	if status == 0 && ctx.Err() != nil {
		return
	}
	s.metrics.ReadSession.Record(latency, status == http.StatusOK, false)
}

func (s *Simulator) doListByPatient(ctx context.Context, rng *rand.Rand) {
	path := fmt.Sprintf("/sessions?patient_id=%s&limit=20&offset=0", s.randomPatient(rng))
	latency, status, _ := s.call(ctx, http.MethodGet, path, nil)
	if status == 0 && ctx.Err() != nil {
		return
	}
	s.metrics.ListByPatient.Record(latency, status == http.StatusOK, false)
}

func (s *Simulator) doAvailability(ctx context.Context, rng *rand.Rand) {
	path := fmt.Sprintf("/centers/%s/availability?date=%s", s.randomCenter(rng), s.randomDate(rng))
	latency, status, _ := s.call(ctx, http.MethodGet, path, nil)
	if status == 0 && ctx.Err() != nil {
		return
	}
	s.metrics.Availability.Record(latency, status == http.StatusOK, false)
}

func (s *Simulator) PrintReport() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("SIMULATION REPORT")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Duration: %s\n", s.config.Duration)
	fmt.Printf("Workers: %d\n", s.config.Workers)
	fmt.Println()

	printOperationReport("Book session", &s.metrics.BookSession)
	printOperationReport("Book program", &s.metrics.BookProgram)
	printOperationReport("Approve session", &s.metrics.ApproveSession)
	printOperationReport("Read session", &s.metrics.ReadSession)
	printOperationReport("List by patient", &s.metrics.ListByPatient)
	printOperationReport("Center availability", &s.metrics.Availability)
}

func printOperationReport(name string, om *OperationMetrics) {
	total := atomic.LoadInt64(&om.Total)
	if total == 0 {
		return
	}

	success := atomic.LoadInt64(&om.Success)
	conflict := atomic.LoadInt64(&om.Conflict)
	failed := atomic.LoadInt64(&om.Error)

	avg, min, max, p50, p95 := om.Stats()

	fmt.Printf("%s:\n", name)
	fmt.Printf("  Total: %d\n", total)
	fmt.Printf("  Success: %d (%.1f%%)\n", success, float64(success)/float64(total)*100)
	if conflict > 0 {
		fmt.Printf("  Conflicts: %d (%.1f%%)\n", conflict, float64(conflict)/float64(total)*100)
	}
	if failed > 0 {
		fmt.Printf("  Errors: %d (%.1f%%)\n", failed, float64(failed)/float64(total)*100)
	}
	fmt.Printf("  Latency: avg=%s min=%s max=%s p50=%s p95=%s\n",
		avg.Round(time.Millisecond), min.Round(time.Millisecond), max.Round(time.Millisecond),
		p50.Round(time.Millisecond), p95.Round(time.Millisecond))
	fmt.Println()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func getInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getFloat(key string, def float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}
