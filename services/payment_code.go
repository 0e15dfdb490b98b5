package services

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PaymentCodeGenerator produces bank-transfer references such as PTTEE-LX3K9Q7F2A
type PaymentCodeGenerator struct {
	prefix string
	now    func() time.Time
	random func() uuid.UUID
}

// NewPaymentCodeGenerator creates a generator using prefix as the brand tag
func NewPaymentCodeGenerator(prefix string) *PaymentCodeGenerator {
	return &PaymentCodeGenerator{prefix: prefix, now: time.Now, random: uuid.New}
}

// Generate returns prefix-TTTTTTRRRR: the last six base-36 digits of the
// millisecond clock followed by four base-36 digits of uuid randomness.
func (g *PaymentCodeGenerator) Generate() string {
	clock := strconv.FormatInt(g.now().UnixMilli(), 36)
	if len(clock) > 6 {
		clock = clock[len(clock)-6:]
	}

	id := g.random()
	// 36^4 = 1,679,616 values per millisecond
	n := binary.BigEndian.Uint32(id[10:14]) % 1679616
	random := strconv.FormatUint(uint64(n), 36)

	return strings.ToUpper(g.prefix + "-" + pad(clock, 6) + pad(random, 4))
}

func pad(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}
