// Package cart is the normalized order-composition state: an id-keyed entity
// collection over certificates, independent of the array-based certificate
// cache, with derived price views computed on read.
package cart

import (
	"github.com/Lokankara/giftstore/internal/models"
)

// Projection keys certificates by id and preserves insertion order for the
// derived views. It mirrors UI actions one-to-one and performs no persistence.
type Projection struct {
	ids      []string
	entities map[string]models.Certificate
}

func New() *Projection {
	return &Projection{entities: map[string]models.Certificate{}}
}

// Add upserts the product: a known id keeps its entity but bumps the count by
// one, an unknown id is inserted with count one. The incoming record's fields
// replace the stored ones either way.
func (p *Projection) Add(product models.Certificate) {
	count := 1
	if entity, ok := p.entities[product.ID]; ok {
		count = entity.Count + 1
	} else {
		p.ids = append(p.ids, product.ID)
	}
	product.Count = count
	p.entities[product.ID] = product
}

// Remove deletes the entity; removing an absent id is a no-op.
func (p *Projection) Remove(id string) {
	if _, ok := p.entities[id]; !ok {
		return
	}
	delete(p.entities, id)
	for i, known := range p.ids {
		if known == id {
			p.ids = append(p.ids[:i], p.ids[i+1:]...)
			return
		}
	}
}

// Increment bumps an existing entity's count by one. Unknown ids are ignored.
func (p *Projection) Increment(id string) {
	if entity, ok := p.entities[id]; ok {
		entity.Count++
		p.entities[id] = entity
	}
}

// Decrement lowers an existing entity's count by one. The caller is expected
// to Remove instead when the count stands at one; nothing here guards against
// going below that.
func (p *Projection) Decrement(id string) {
	if entity, ok := p.entities[id]; ok {
		entity.Count--
		p.entities[id] = entity
	}
}

// Get returns the stored entity as-is.
func (p *Projection) Get(id string) (models.Certificate, bool) {
	entity, ok := p.entities[id]
	return entity, ok
}

// Len reports how many distinct products are in the cart.
func (p *Projection) Len() int {
	return len(p.ids)
}

// Items returns the entities in insertion order, unscaled.
func (p *Projection) Items() []models.Certificate {
	out := make([]models.Certificate, 0, len(p.ids))
	for _, id := range p.ids {
		out = append(out, p.entities[id])
	}
	return out
}

// Products returns the entities with the price scaled by quantity, the view
// the cart page renders.
func (p *Projection) Products() []models.Certificate {
	out := p.Items()
	for i := range out {
		out[i].Price = out[i].Price * float64(out[i].Count)
	}
	return out
}

// TotalCount sums the quantities across the cart.
func (p *Projection) TotalCount() int {
	total := 0
	for _, id := range p.ids {
		total += p.entities[id].Count
	}
	return total
}

// TotalAmount is the cart's cost: the sum of price times quantity.
func (p *Projection) TotalAmount() float64 {
	total := 0.0
	for _, id := range p.ids {
		entity := p.entities[id]
		total += entity.Price * float64(entity.Count)
	}
	return total
}

// WithBonuses returns the entities with the price scaled by the user's bonus
// multiplier, the price shown to a logged-in account.
func (p *Projection) WithBonuses(user models.User) []models.Certificate {
	out := p.Items()
	for i := range out {
		out[i].Price = out[i].Price * user.Bonuses
	}
	return out
}
