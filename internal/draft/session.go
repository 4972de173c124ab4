package draft

import (
	"context"
	"fmt"
	"sync"

	"order-service/internal/catalog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubmitResult reports the persisted identity of a successfully submitted
// order.
type SubmitResult struct {
	OrderID uint `json:"order_id"`
}

// Submitter accepts a built payload. Implementations must return
// distinguishable errors for duplicate order numbers and validation
// failures so the operator can recover without losing the draft.
type Submitter interface {
	Submit(ctx context.Context, payload Payload) (SubmitResult, error)
}

// Session owns one open draft and its catalog snapshot. All access is
// serialized by the session mutex: the engine is synchronous from the
// operator's point of view, and while a submission is in flight every
// other operation is refused.
type Session struct {
	ID   uuid.UUID
	Kind Kind

	mu         sync.Mutex
	draft      *Draft
	snap       *catalog.Snapshot
	submitting bool
}

// LineView is the UI echo of one line, including the derived subtotal and,
// for bounded (sale) lines, the current admissible-quantity ceiling.
type LineView struct {
	ProductID        uint            `json:"product_id"`
	PresentationID   uint            `json:"presentation_id"`
	ProductName      string          `json:"product_name"`
	ProductCode      string          `json:"product_code"`
	PresentationName string          `json:"presentation_name"`
	Factor           decimal.Decimal `json:"factor"`
	Quantity         int             `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	MaxQuantity      *int            `json:"max_quantity,omitempty"`
}

// View is the UI echo of a whole draft.
type View struct {
	ID    uuid.UUID       `json:"id"`
	Kind  Kind            `json:"kind"`
	Lines []LineView      `json:"lines"`
	Total decimal.Decimal `json:"total"`
}

func (s *Session) guard() error {
	if s.submitting {
		return ErrSubmitInFlight
	}
	return nil
}

// AddLine adds or merges a line. See Draft.AddOrMerge.
func (s *Session) AddLine(productID, presentationID uint, quantity int, unitPrice decimal.Decimal) (LineView, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return LineView{}, false, err
	}
	line, merged, err := s.draft.AddOrMerge(s.snap, productID, presentationID, quantity, unitPrice)
	if err != nil {
		return LineView{}, false, err
	}
	return s.lineView(line), merged, nil
}

// ChangePresentation re-keys a line to another presentation of its product.
func (s *Session) ChangePresentation(productID, oldPresentationID, newPresentationID uint) (LineView, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return LineView{}, false, err
	}
	line, clamped, err := s.draft.ChangePresentation(s.snap, productID, oldPresentationID, newPresentationID)
	if err != nil {
		return LineView{}, false, err
	}
	return s.lineView(line), clamped, nil
}

// UpdateQuantity commits an operator-entered quantity.
func (s *Session) UpdateQuantity(productID, presentationID uint, quantity int) (LineView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return LineView{}, err
	}
	line, err := s.draft.UpdateQuantity(s.snap, productID, presentationID, quantity)
	if err != nil {
		return LineView{}, err
	}
	return s.lineView(line), nil
}

// UpdatePrice changes a purchase line's unit price.
func (s *Session) UpdatePrice(productID, presentationID uint, unitPrice decimal.Decimal) (LineView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return LineView{}, err
	}
	line, err := s.draft.UpdatePrice(productID, presentationID, unitPrice)
	if err != nil {
		return LineView{}, err
	}
	return s.lineView(line), nil
}

// RemoveLine deletes a line.
func (s *Session) RemoveLine(productID, presentationID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.guard(); err != nil {
		return err
	}
	return s.draft.Remove(productID, presentationID)
}

// View returns the current lines and grand total. The total is recomputed
// from line state on every call.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := View{
		ID:    s.ID,
		Kind:  s.Kind,
		Lines: make([]LineView, 0, len(s.draft.Lines)),
		Total: s.draft.Total(),
	}
	for _, l := range s.draft.Lines {
		v.Lines = append(v.Lines, s.lineView(l))
	}
	return v
}

// Snapshot exposes the session's cached catalog for product pickers.
func (s *Session) Snapshot() *catalog.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *Session) lineView(l *Line) LineView {
	v := LineView{
		ProductID:        l.ProductID,
		PresentationID:   l.PresentationID,
		ProductName:      l.ProductName,
		ProductCode:      l.ProductCode,
		PresentationName: l.PresentationName,
		Factor:           l.Factor,
		Quantity:         l.Quantity,
		UnitPrice:        l.UnitPrice,
		Subtotal:         l.Subtotal(s.Kind),
	}
	if product, ok := s.snap.Product(l.ProductID); ok {
		if max, bounded := MaxAdmissibleQuantity(s.Kind, product.StockBaseUnits, l.Factor); bounded {
			v.MaxQuantity = &max
		}
	}
	return v
}

// Manager owns the open draft sessions. Each session has an independent
// draft and an independent session-cached snapshot; concurrent purchase and
// sale sessions share nothing and see each other's stock changes only
// through a snapshot refresh.
type Manager struct {
	source    catalog.SnapshotSource
	submitter Submitter

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager over a snapshot source and a
// submission service.
func NewManager(source catalog.SnapshotSource, submitter Submitter) *Manager {
	return &Manager{
		source:    source,
		submitter: submitter,
		sessions:  make(map[uuid.UUID]*Session),
	}
}

// Open starts a new draft session of the given kind, loading the catalog
// snapshot once for the session.
func (m *Manager) Open(ctx context.Context, kind Kind) (*Session, error) {
	if !kind.Valid() {
		return nil, validationErrorf("kind", "unknown draft kind %q", kind)
	}

	snap, err := m.source.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog snapshot: %w", err)
	}

	s := &Session{
		ID:    uuid.New(),
		Kind:  kind,
		draft: New(kind),
		snap:  snap,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s, nil
}

// Get returns an open session by id.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return s, nil
}

// Discard drops a session and its in-memory draft. Cancellation is
// synchronous; there is no partial state to persist.
func (m *Manager) Discard(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrDraftNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Submit builds the payload and sends it to the submission service. The
// snapshot is refreshed first so the courtesy stock re-check runs against
// the freshest figures available. While the call is in flight the session
// refuses edits and resubmits; on failure the draft is preserved and
// editing re-enabled, on success the session is cleared.
func (m *Manager) Submit(ctx context.Context, id uuid.UUID, header Header) (SubmitResult, error) {
	s, err := m.Get(id)
	if err != nil {
		return SubmitResult{}, err
	}

	s.mu.Lock()
	if s.submitting {
		s.mu.Unlock()
		return SubmitResult{}, ErrSubmitInFlight
	}

	snap, err := m.source.Load(ctx)
	if err != nil {
		s.mu.Unlock()
		return SubmitResult{}, fmt.Errorf("refresh catalog snapshot: %w", err)
	}
	s.snap = snap
	s.draft.Header = header

	payload, err := BuildPayload(s.draft, snap)
	if err != nil {
		s.mu.Unlock()
		return SubmitResult{}, err
	}

	s.submitting = true
	s.mu.Unlock()

	result, err := m.submitter.Submit(ctx, payload)

	s.mu.Lock()
	s.submitting = false
	s.mu.Unlock()

	if err != nil {
		return SubmitResult{}, err
	}

	// The draft is cleared only after the service accepted it.
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
	return result, nil
}
