package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ghuser/pharmacy/pkg/events"
	"github.com/ghuser/pharmacy/pkg/instrument"
	"github.com/ghuser/pharmacy/pkg/logger"
	pkgvalidator "github.com/ghuser/pharmacy/pkg/validator"
	"github.com/ghuser/pharmacy/services/pharmacy/domain"
	domainevents "github.com/ghuser/pharmacy/services/pharmacy/domain/events"
	"github.com/ghuser/pharmacy/services/pharmacy/domain/models"
	"github.com/ghuser/pharmacy/services/pharmacy/domain/repositories"
	domainsvcs "github.com/ghuser/pharmacy/services/pharmacy/domain/services"
	"github.com/ghuser/pharmacy/services/pharmacy/infrastructure/persistence/snapshot"
)

var tracer = otel.Tracer("github.com/ghuser/pharmacy/services/pharmacy")

// SelfPublisher is implemented by repositories that announce saved snapshots
// themselves (the postgres outbox).
type SelfPublisher interface {
	PublishesSnapshotEvents() bool
}

// Options wires a PharmacyService. Every field except Repository may be left
// zero: a nil Bus disables events, nil sinks discard teardown records.
type Options struct {
	Repository   repositories.PharmacyRepository
	Backend      string
	Files        snapshot.Files
	Bus          *events.EventBus
	Recorder     *instrument.Recorder
	Logger       logger.Logger
	MedicineSink models.TeardownSink
	PharmacySink models.TeardownSink
}

// PharmacyService owns one catalog and orchestrates validation, domain calls,
// event publication, instrumentation and persistence around it.
// It is not safe for concurrent use.
type PharmacyService struct {
	pharmacy *models.Pharmacy
	seq      *models.IDSequence
	opts     Options
	rec      *instrument.Recorder
	log      logger.Logger
}

// NewPharmacyService creates an empty catalog called name.
func NewPharmacyService(name string, opts Options) (*PharmacyService, error) {
	if err := domainsvcs.ValidateName("pharmacy name", name); err != nil {
		return nil, err
	}
	seq := models.NewIDSequence()
	p, err := models.NewPharmacy(seq, name)
	if err != nil {
		return nil, fmt.Errorf("create pharmacy: %w", err)
	}

	if opts.Logger == nil {
		opts.Logger = logger.Discard()
	}
	if opts.Files.Extension == "" {
		opts.Files = snapshot.NewFiles("")
	}
	rec := opts.Recorder
	if rec == nil {
		rec = instrument.NewRecorder(opts.Logger)
	}

	return &PharmacyService{
		pharmacy: p,
		seq:      seq,
		opts:     opts,
		rec:      rec,
		log:      opts.Logger.With("pharmacy", name),
	}, nil
}

// OpenPharmacyService is NewPharmacyService starting from the snapshot stored
// under name, when the repository has one. The second result reports whether
// a snapshot was restored.
func OpenPharmacyService(ctx context.Context, name string, opts Options) (*PharmacyService, bool, error) {
	s, err := NewPharmacyService(name, opts)
	if err != nil || opts.Repository == nil {
		return s, false, err
	}

	found, err := opts.Repository.Exists(ctx, name)
	if err != nil {
		return nil, false, fmt.Errorf("check snapshot: %w", err)
	}
	if !found {
		return s, false, nil
	}

	p, err := opts.Repository.Load(ctx, name, s.seq)
	if err != nil {
		return nil, false, fmt.Errorf("load snapshot: %w", err)
	}
	p, err = s.advance(p)
	if err != nil {
		return nil, false, err
	}
	// the empty catalog was never handed out, so it is dropped without teardown
	s.adopt(p)
	s.log.InfoContext(ctx, "snapshot restored", "backend", opts.Backend, "medicines", len(p.Medicines()))
	return s, true, nil
}

// Pharmacy returns the current catalog.
func (s *PharmacyService) Pharmacy() *models.Pharmacy { return s.pharmacy }

// Name returns the catalog name.
func (s *PharmacyService) Name() string { return s.pharmacy.Name() }

// Backend returns the configured repository backend name.
func (s *PharmacyService) Backend() string { return s.opts.Backend }

// AddMedicine validates in, creates the medicine and adds it to the catalog.
func (s *PharmacyService) AddMedicine(ctx context.Context, in MedicineInput) (*models.Medicine, string, error) {
	var (
		m   *models.Medicine
		msg string
	)
	err := s.run(ctx, "add_medicine", func(ctx context.Context) error {
		if err := pkgvalidator.Check(&in); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		if err := domainsvcs.ValidateName("name", in.Name); err != nil {
			return err
		}

		created, err := models.NewMedicine(s.seq, in.Name, in.Price, in.Quantity, in.ExpiryDate)
		if err != nil {
			return fmt.Errorf("create medicine: %w", err)
		}
		if err := domainsvcs.ValidateMedicineForCatalog(created); err != nil {
			return err
		}

		msg, err = s.pharmacy.AddMedicine(created)
		if err != nil {
			return fmt.Errorf("add medicine: %w", err)
		}
		m = created

		s.publish(ctx, domainevents.TopicMedicineAdded, domainevents.MedicineAddedEvent{
			EventID:    uuid.New(),
			Version:    1,
			Pharmacy:   s.pharmacy.Name(),
			MedicineID: m.ID(),
			Name:       m.Name(),
			Quantity:   m.Quantity(),
			OccurredAt: time.Now().UTC(),
		})
		s.log.InfoContext(ctx, "medicine added", "medicine_id", m.ID(), "name", m.Name())
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return m, msg, nil
}

// RemoveMedicine removes the first medicine called name and tears it down.
// Returns ErrMedicineNotFound if there is none.
func (s *PharmacyService) RemoveMedicine(ctx context.Context, name string) error {
	return s.run(ctx, "remove_medicine", func(ctx context.Context) error {
		m, ok := s.pharmacy.FindByName(name)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrMedicineNotFound, name)
		}
		s.pharmacy.RemoveMedicine(m)
		m.Close(s.opts.MedicineSink)

		s.publish(ctx, domainevents.TopicMedicineRemoved, domainevents.MedicineRemovedEvent{
			EventID:    uuid.New(),
			Version:    1,
			Pharmacy:   s.pharmacy.Name(),
			MedicineID: m.ID(),
			Name:       m.Name(),
			OccurredAt: time.Now().UTC(),
		})
		return nil
	})
}

// Sell sells amount units of the medicine called name.
func (s *PharmacyService) Sell(ctx context.Context, name string, amount int) error {
	return s.run(ctx, "sell", func(ctx context.Context) error {
		m, ok := s.pharmacy.FindByName(name)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrMedicineNotFound, name)
		}
		before := m.Quantity()
		if _, err := m.Sell(amount); err != nil {
			return fmt.Errorf("sell %s: %w", m.Name(), err)
		}
		s.publishStock(ctx, m, models.TransactionSale, before, "")
		return nil
	})
}

// Restock adds amount units to the medicine called name.
func (s *PharmacyService) Restock(ctx context.Context, name string, amount int) error {
	return s.run(ctx, "restock", func(ctx context.Context) error {
		m, ok := s.pharmacy.FindByName(name)
		if !ok {
			return fmt.Errorf("%w: %s", domain.ErrMedicineNotFound, name)
		}
		before := m.Quantity()
		if err := m.Restock(amount); err != nil {
			return fmt.Errorf("restock %s: %w", m.Name(), err)
		}
		s.publishStock(ctx, m, models.TransactionRestock, before, "")
		return nil
	})
}

// Find returns the first medicine called name, compared case-insensitively.
func (s *PharmacyService) Find(name string) (*models.Medicine, bool) {
	defer s.rec.Track("find")()
	return s.pharmacy.FindByName(name)
}

// RegisterSupplier validates in, creates the supplier with its supply list and
// registers it, replacing any supplier with the same name.
func (s *PharmacyService) RegisterSupplier(ctx context.Context, in SupplierInput) (*models.Supplier, string, error) {
	var (
		sup *models.Supplier
		msg string
	)
	err := s.run(ctx, "register_supplier", func(ctx context.Context) error {
		if err := pkgvalidator.Check(&in); err != nil {
			return fmt.Errorf("%w: %w", domain.ErrValidation, err)
		}
		if err := domainsvcs.ValidateName("supplier name", in.Name); err != nil {
			return err
		}

		created, err := models.NewSupplier(in.Name, in.Contact)
		if err != nil {
			return fmt.Errorf("create supplier: %w", err)
		}
		for _, name := range in.Supplies {
			if _, err := created.AddSuppliedMedicine(name); err != nil {
				return fmt.Errorf("create supplier: %w", err)
			}
		}

		msg, err = s.pharmacy.RegisterSupplier(created)
		if err != nil {
			return fmt.Errorf("register supplier: %w", err)
		}
		sup = created

		s.publish(ctx, domainevents.TopicSupplierRegistered, domainevents.SupplierRegisteredEvent{
			EventID:    uuid.New(),
			Version:    1,
			Pharmacy:   s.pharmacy.Name(),
			Name:       sup.Name(),
			Contact:    sup.Contact(),
			OccurredAt: time.Now().UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, "", err
	}
	return sup, msg, nil
}

// AssignSupplier links the medicine called medicineName to a registered supplier.
func (s *PharmacyService) AssignSupplier(ctx context.Context, medicineName, supplierName string) error {
	return s.run(ctx, "assign_supplier", func(context.Context) error {
		if err := s.pharmacy.AssignSupplier(medicineName, supplierName); err != nil {
			return fmt.Errorf("assign supplier: %w", err)
		}
		return nil
	})
}

// RestockFromSupplier delivers quantity units of medicineName from the
// registered supplier called supplierName. Unknown suppliers are rejected as
// unregistered.
func (s *PharmacyService) RestockFromSupplier(ctx context.Context, supplierName, medicineName string, quantity int) (string, error) {
	var msg string
	err := s.run(ctx, "restock_from_supplier", func(ctx context.Context) error {
		sup, _ := s.pharmacy.Supplier(supplierName)
		before := 0
		if m, ok := s.pharmacy.FindByName(medicineName); ok {
			before = m.Quantity()
		}

		var err error
		msg, err = s.pharmacy.RestockFromSupplier(sup, medicineName, quantity)
		if err != nil {
			return fmt.Errorf("restock from supplier: %w", err)
		}

		if m, ok := s.pharmacy.FindByName(medicineName); ok {
			s.publishStock(ctx, m, models.TransactionRestock, before, sup.Name())
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return msg, nil
}

// Medicines returns the catalog in insertion order.
func (s *PharmacyService) Medicines() []*models.Medicine {
	defer s.rec.Track("list_medicines")()
	return s.pharmacy.Medicines()
}

// Suppliers returns the registered suppliers in registration order.
func (s *PharmacyService) Suppliers() []*models.Supplier {
	defer s.rec.Track("list_suppliers")()
	return s.pharmacy.Suppliers()
}

// Transactions returns the catalog activity log.
func (s *PharmacyService) Transactions() []models.Record {
	return s.pharmacy.Transactions()
}

// Save stores a snapshot of the catalog in the configured repository.
func (s *PharmacyService) Save(ctx context.Context) error {
	return s.run(ctx, "save", func(ctx context.Context) error {
		if s.opts.Repository == nil {
			return errors.New("save snapshot: no repository configured")
		}
		if err := s.opts.Repository.Save(ctx, s.pharmacy); err != nil {
			return fmt.Errorf("save snapshot: %w", err)
		}
		if sp, ok := s.opts.Repository.(SelfPublisher); !ok || !sp.PublishesSnapshotEvents() {
			s.publishSaved(ctx, s.opts.Backend)
		}
		s.log.InfoContext(ctx, "snapshot saved", "backend", s.opts.Backend, "medicines", len(s.pharmacy.Medicines()))
		return nil
	})
}

// Load replaces the catalog with the snapshot stored under name. The previous
// catalog is torn down.
func (s *PharmacyService) Load(ctx context.Context, name string) error {
	return s.run(ctx, "load", func(ctx context.Context) error {
		if s.opts.Repository == nil {
			return errors.New("load snapshot: no repository configured")
		}
		p, err := s.opts.Repository.Load(ctx, name, s.seq)
		if err != nil {
			return fmt.Errorf("load snapshot: %w", err)
		}
		return s.replace(p)
	})
}

// SaveToFile writes the catalog to path, which must carry the snapshot extension.
func (s *PharmacyService) SaveToFile(ctx context.Context, path string) error {
	return s.run(ctx, "save_to_file", func(ctx context.Context) error {
		if err := s.opts.Files.Save(s.pharmacy, path); err != nil {
			return fmt.Errorf("save snapshot file: %w", err)
		}
		s.publishSaved(ctx, "file")
		return nil
	})
}

// LoadFromFile replaces the catalog with the one stored at path.
func (s *PharmacyService) LoadFromFile(ctx context.Context, path string) error {
	return s.run(ctx, "load_from_file", func(context.Context) error {
		p, err := s.opts.Files.Load(path, s.seq)
		if err != nil {
			return fmt.Errorf("load snapshot file: %w", err)
		}
		return s.replace(p)
	})
}

// Close tears down every medicine and then the catalog. Repeated calls are
// no-ops. Afterwards every mutating or persisting operation fails with
// domain.ErrCatalogClosed; the read accessors keep working.
func (s *PharmacyService) Close() {
	if s.pharmacy.Closed() {
		return
	}
	for _, m := range s.pharmacy.Medicines() {
		m.Close(s.opts.MedicineSink)
	}
	s.pharmacy.Close(s.opts.PharmacySink)
}

// CallCount returns how many times operation has run.
func (s *PharmacyService) CallCount(operation string) int {
	return s.rec.CallCount(operation)
}

// Stats returns per-operation call statistics.
func (s *PharmacyService) Stats() []instrument.Stats {
	return s.rec.Snapshot()
}

// run executes op under a span named after it and records its call stats.
// A closed catalog fails every op before fn runs.
func (s *PharmacyService) run(ctx context.Context, op string, fn func(context.Context) error) error {
	defer s.rec.Track(op)()

	ctx, span := tracer.Start(ctx, "pharmacy."+op, trace.WithAttributes(
		attribute.String("pharmacy.name", s.pharmacy.Name()),
		attribute.String("pharmacy.backend", s.opts.Backend),
	))
	defer span.End()

	var err error
	if s.pharmacy.Closed() {
		err = fmt.Errorf("%s: %w", op, domain.ErrCatalogClosed)
	} else {
		err = fn(ctx)
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

// replace swaps in a restored catalog and tears down the previous one.
func (s *PharmacyService) replace(p *models.Pharmacy) error {
	p, err := s.advance(p)
	if err != nil {
		return err
	}
	s.Close()
	s.adopt(p)
	return nil
}

// advance keeps restored ids, so the sequence is moved past the highest one
// before new medicines are created.
func (s *PharmacyService) advance(p *models.Pharmacy) (*models.Pharmacy, error) {
	var maxID int64
	for _, m := range p.Medicines() {
		if m.ID() > maxID {
			maxID = m.ID()
		}
	}
	if s.seq.Peek() > maxID {
		return p, nil
	}
	seq := models.NewIDSequenceFrom(maxID + 1)
	restored, err := models.RestorePharmacy(seq, p.State())
	if err != nil {
		return nil, fmt.Errorf("restore catalog: %w", err)
	}
	s.seq = seq
	return restored, nil
}

func (s *PharmacyService) adopt(p *models.Pharmacy) {
	s.pharmacy = p
	s.log = s.opts.Logger.With("pharmacy", p.Name())
}

func (s *PharmacyService) publishStock(ctx context.Context, m *models.Medicine, kind models.TransactionKind, before int, supplier string) {
	s.publish(ctx, domainevents.TopicStockChanged, domainevents.StockChangedEvent{
		EventID:    uuid.New(),
		Version:    1,
		Pharmacy:   s.pharmacy.Name(),
		MedicineID: m.ID(),
		Name:       m.Name(),
		Kind:       string(kind),
		Before:     before,
		After:      m.Quantity(),
		Supplier:   supplier,
		OccurredAt: time.Now().UTC(),
	})
}

func (s *PharmacyService) publishSaved(ctx context.Context, backend string) {
	s.publish(ctx, domainevents.TopicSnapshotSaved, domainevents.SnapshotSavedEvent{
		EventID:    uuid.New(),
		Version:    1,
		Pharmacy:   s.pharmacy.Name(),
		Backend:    backend,
		Medicines:  len(s.pharmacy.Medicines()),
		OccurredAt: time.Now().UTC(),
	})
}

// publish is best-effort: the catalog has already changed, so a bus failure
// is logged and not returned.
func (s *PharmacyService) publish(ctx context.Context, topic string, event any) {
	if s.opts.Bus == nil {
		return
	}
	if err := s.opts.Bus.PublishJSON(ctx, topic, event); err != nil {
		s.log.ErrorContext(ctx, "failed to publish event", "topic", topic, "error", err)
	}
}
