package booking

import (
	"crypto/rand"
	"fmt"
	mrand "math/rand/v2"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/kishan2613/Sarthi/apperror"
	"github.com/kishan2613/Sarthi/models"
)

const (
	SlotBookingPrefix = "BKG"
	QueueTicketPrefix = "TKT"

	suffixLength = 5
	base36       = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
)

// TicketIssuer generates booking references and gate assignments. It only
// fills fields the caller left empty.
type TicketIssuer struct {
	gates []string
	now   func() time.Time
}

// NewTicketIssuer builds an issuer for gates Gate-1..Gate-n.
func NewTicketIssuer(gateCount int) *TicketIssuer {
	if gateCount <= 0 {
		gateCount = 5
	}
	gates := make([]string, gateCount)
	for i := range gates {
		gates[i] = fmt.Sprintf("Gate-%d", i+1)
	}
	return &TicketIssuer{gates: gates, now: time.Now}
}

// Gates returns the gate pool.
func (t *TicketIssuer) Gates() []string {
	return slices.Clone(t.gates)
}

func (t *TicketIssuer) IsGate(label string) bool {
	return slices.Contains(t.gates, label)
}

// Gate picks a gate uniformly from the pool.
func (t *TicketIssuer) Gate() string {
	return t.gates[mrand.IntN(len(t.gates))]
}

// Reference returns PREFIX-<base36 unix millis>-<5 random base36 chars>.
func (t *TicketIssuer) Reference(prefix string) (string, error) {
	suffix, err := randomBase36(suffixLength)
	if err != nil {
		return "", err
	}
	stamp := strings.ToUpper(strconv.FormatInt(t.now().UnixMilli(), 36))
	return prefix + "-" + stamp + "-" + suffix, nil
}

// Issue fills Reference and, for queue tickets, the gate.
func (t *TicketIssuer) Issue(b *models.Booking) error {
	if b.Reference == "" {
		prefix := SlotBookingPrefix
		if b.Kind == models.KindQueue {
			prefix = QueueTicketPrefix
		}
		ref, err := t.Reference(prefix)
		if err != nil {
			return apperror.Wrap(err, apperror.CodeInternal, "could not issue booking reference")
		}
		b.Reference = ref
	}
	if b.Kind == models.KindQueue && b.Queue != nil && b.Queue.GateNumber == "" {
		b.Queue.GateNumber = t.Gate()
	}
	return nil
}

// randomBase36 draws n characters with rejection sampling so every symbol
// is equally likely.
func randomBase36(n int) (string, error) {
	const limit = 252 // largest multiple of 36 below 256
	out := make([]byte, 0, n)
	buf := make([]byte, n*2)
	for len(out) < n {
		if _, err := rand.Read(buf); err != nil {
			return "", fmt.Errorf("failed to generate random bytes: %w", err)
		}
		for _, b := range buf {
			if b < limit && len(out) < n {
				out = append(out, base36[b%36])
			}
		}
	}
	return string(out), nil
}
