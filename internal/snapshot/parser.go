package snapshot

import (
	"bufio"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/stacklok/accreg-sync/internal/registry"
)

const (
	// StatusActive is the certificate and supplement status that keeps a record
	StatusActive = "Действующее"

	dateLayout       = "2006-01-02"
	certificateTag   = "Certificate"
	certificatesTag  = "Certificates"
	readerBufferSize = 1 << 20
)

// ErrParse wraps every decoding failure of a snapshot document
var ErrParse = errors.New("failed to parse snapshot")

// Snapshot is the fully materialized content of one registry dump
type Snapshot struct {
	Institutions []*registry.Institution
	Programs     []*registry.Program
	Stats        Stats
}

// Stats describes what the parser saw and skipped
type Stats struct {
	Certificates         int
	SkippedCertificates  int
	Supplements          int
	SkippedSupplements   int
	RejectedInstitutions int
	CertificateStatuses  []string
	SupplementStatuses   []string
}

// Parser turns registry XML dumps into records
//
//go:generate mockgen -destination=mocks/mock_parser.go -package=mocks github.com/stacklok/accreg-sync/internal/snapshot Parser
type Parser interface {
	// Parse decodes the file at path. Decoding runs on a worker goroutine; the call
	// returns early with ctx.Err() when ctx is cancelled.
	Parse(ctx context.Context, path string) (*Snapshot, error)
}

// Option configures the XML parser
type Option func(*xmlParser)

// WithNow overrides the clock used to expire certificates
func WithNow(now func() time.Time) Option {
	return func(p *xmlParser) {
		p.now = now
	}
}

type xmlParser struct {
	now func() time.Time
}

// NewParser creates the registry XML parser
func NewParser(opts ...Option) Parser {
	p := &xmlParser{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

type parseResult struct {
	snapshot *Snapshot
	err      error
}

// Parse implements Parser
func (p *xmlParser) Parse(ctx context.Context, path string) (*Snapshot, error) {
	results := make(chan parseResult, 1)

	go func() {
		f, err := os.Open(path) // #nosec G304 -- path comes from the fetcher's download directory
		if err != nil {
			results <- parseResult{err: fmt.Errorf("failed to open snapshot: %w", err)}
			return
		}
		defer func() {
			_ = f.Close()
		}()

		snap, err := p.decode(ctx, bufio.NewReaderSize(f, readerBufferSize))
		results <- parseResult{snapshot: snap, err: err}
	}()

	select {
	case res := <-results:
		return res.snapshot, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ParseReader decodes a snapshot document from r on the calling goroutine
func ParseReader(ctx context.Context, r io.Reader, opts ...Option) (*Snapshot, error) {
	p := &xmlParser{now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p.decode(ctx, r)
}

func (p *xmlParser) decode(ctx context.Context, r io.Reader) (*Snapshot, error) {
	today := p.now().Format(dateLayout)
	b := newBuilder()
	dec := xml.NewDecoder(r)

	var parents []string
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParse, err)
		}

		switch el := tok.(type) {
		case xml.StartElement:
			if el.Name.Local != certificateTag || len(parents) == 0 || parents[len(parents)-1] != certificatesTag {
				parents = append(parents, el.Name.Local)
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			var cert xmlCertificate
			if err := dec.DecodeElement(&cert, &el); err != nil {
				return nil, fmt.Errorf("%w: certificate: %w", ErrParse, err)
			}
			if err := b.addCertificate(&cert, today); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrParse, err)
			}
		case xml.EndElement:
			if len(parents) > 0 {
				parents = parents[:len(parents)-1]
			}
		}
	}

	snap := b.build()
	slog.DebugContext(ctx, "Parsed registry snapshot",
		"certificates", snap.Stats.Certificates,
		"skipped_certificates", snap.Stats.SkippedCertificates,
		"supplements", snap.Stats.Supplements,
		"skipped_supplements", snap.Stats.SkippedSupplements,
		"rejected_institutions", snap.Stats.RejectedInstitutions,
		"certificate_statuses", snap.Stats.CertificateStatuses,
		"supplement_statuses", snap.Stats.SupplementStatuses,
		"institutions", len(snap.Institutions),
		"programs", len(snap.Programs))

	return snap, nil
}

// isExpired reports whether endDate lies before today. Values that are not ISO dates
// are compared as strings.
func isExpired(endDate, today string) bool {
	if endDate == "" {
		return false
	}
	if len(endDate) >= len(dateLayout) {
		if _, err := time.Parse(dateLayout, endDate[:len(dateLayout)]); err == nil {
			return endDate[:len(dateLayout)] < today
		}
	}
	return endDate < today
}

// builder accumulates records, keeping the first position and the last content of
// records repeated across certificates
type builder struct {
	institutions     []*registry.Institution
	programs         []*registry.Program
	institutionIndex map[string]int
	programIndex     map[string]int
	certStatuses     map[string]struct{}
	supplStatuses    map[string]struct{}
	stats            Stats
}

func newBuilder() *builder {
	return &builder{
		institutionIndex: make(map[string]int),
		programIndex:     make(map[string]int),
		certStatuses:     make(map[string]struct{}),
		supplStatuses:    make(map[string]struct{}),
	}
}

func (b *builder) addCertificate(cert *xmlCertificate, today string) error {
	b.stats.Certificates++
	b.certStatuses[cert.StatusName] = struct{}{}

	if cert.StatusName != StatusActive || isExpired(cert.EndDate, today) {
		b.stats.SkippedCertificates++
		return nil
	}

	inst, err := cert.Organization.toInstitution()
	if err != nil {
		return err
	}
	b.addInstitution(inst)

	for i := range cert.Supplements {
		if err := b.addSupplement(&cert.Supplements[i]); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) addSupplement(suppl *xmlSupplement) error {
	b.stats.Supplements++
	b.supplStatuses[suppl.StatusName] = struct{}{}

	if suppl.StatusName != StatusActive {
		b.stats.SkippedSupplements++
		return nil
	}

	inst, err := suppl.Organization.toInstitution()
	if err != nil {
		return err
	}
	if !b.addInstitution(inst) {
		return nil
	}

	for i := range suppl.Programs {
		prog, err := suppl.Programs[i].toProgram(inst.ID)
		if err != nil {
			return err
		}
		b.addProgram(prog)
	}
	return nil
}

// addInstitution records inst when it passes the domain predicate and reports whether it did
func (b *builder) addInstitution(inst *registry.Institution) bool {
	if inst.ID == "" || !registry.IsHigherEducationInstitution(inst) {
		b.stats.RejectedInstitutions++
		return false
	}
	if idx, ok := b.institutionIndex[inst.ID]; ok {
		b.institutions[idx] = inst
		return true
	}
	b.institutionIndex[inst.ID] = len(b.institutions)
	b.institutions = append(b.institutions, inst)
	return true
}

func (b *builder) addProgram(prog *registry.Program) {
	if prog.ID == "" {
		return
	}
	if idx, ok := b.programIndex[prog.ID]; ok {
		b.programs[idx] = prog
		return
	}
	b.programIndex[prog.ID] = len(b.programs)
	b.programs = append(b.programs, prog)
}

func (b *builder) build() *Snapshot {
	b.stats.CertificateStatuses = sortedKeys(b.certStatuses)
	b.stats.SupplementStatuses = sortedKeys(b.supplStatuses)
	return &Snapshot{
		Institutions: b.institutions,
		Programs:     b.programs,
		Stats:        b.stats,
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
