package catalog

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/parts/internal/models"
	"github.com/hyperjump/parts/internal/storage"
)

// DefaultSeedCount is the number of parts Seed inserts when asked for zero.
const DefaultSeedCount = 1025

var seedWords = []string{
	"anchor", "axle", "bearing", "bolt", "bracket", "bushing", "cable", "clamp",
	"coil", "collar", "coupling", "flange", "gasket", "gear", "hinge", "hub",
	"lever", "nozzle", "nut", "piston", "plate", "pulley", "ring", "rivet",
	"rod", "seal", "shaft", "shim", "sleeve", "spacer", "spring", "sprocket",
	"stud", "valve", "washer", "wedge", "heavy", "light", "reverse", "compact",
	"alloy", "brass", "copper", "nickel", "steel", "titanium", "rubber", "nylon",
	"flat", "hex", "round", "threaded", "tapered", "sealed", "wound", "tight",
}

const (
	skuLetters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	skuDigits  = "0123456789"
)

// Seeder generates random parts.
type Seeder struct {
	rnd *rand.Rand
}

// NewSeeder returns a Seeder. A zero seed uses the current time.
func NewSeeder(seed int64) *Seeder {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Seeder{rnd: rand.New(rand.NewSource(seed))}
}

func (g *Seeder) word() string {
	return seedWords[g.rnd.Intn(len(seedWords))]
}

// Input returns a random valid part: a two-word name, a 4-letter 8-digit SKU,
// a six-word sentence, and a weight between 1 and 50 ounces.
func (g *Seeder) Input() *models.PartInput {
	name := capitalize(g.word()) + " " + capitalize(g.word())

	var sku strings.Builder
	for i := 0; i < 4; i++ {
		sku.WriteByte(skuLetters[g.rnd.Intn(len(skuLetters))])
	}
	for i := 0; i < 8; i++ {
		sku.WriteByte(skuDigits[g.rnd.Intn(len(skuDigits))])
	}

	words := make([]string, 6)
	for i := range words {
		words[i] = g.word()
	}
	description := capitalize(strings.Join(words, " ")) + "."

	active := g.rnd.Intn(2)
	return &models.PartInput{
		Name:         name,
		SKU:          sku.String(),
		Description:  description,
		WeightOunces: 1 + g.rnd.Intn(50),
		IsActive:     &active,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// Seed inserts n random parts (DefaultSeedCount when n <= 0) and returns how many were created.
// Generated SKUs that collide with existing ones are regenerated.
func (s *Service) Seed(ctx context.Context, n int, seeder *Seeder) (int, error) {
	if n <= 0 {
		n = DefaultSeedCount
	}
	if seeder == nil {
		seeder = NewSeeder(0)
	}
	created := 0
	for created < n {
		if err := ctx.Err(); err != nil {
			return created, err
		}
		_, err := s.Create(ctx, seeder.Input())
		if errors.Is(err, storage.ErrDuplicateSKU) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed part %d: %w", created+1, err)
		}
		created++
	}
	s.logger.Info("seeded parts", zap.Int("count", created))
	return created, nil
}
