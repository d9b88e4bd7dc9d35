package services

import (
	"strconv"
	"strings"
	"time"

	"github.com/EhsanMalik360/productsmappingapp-sub002/models"
)

// MatchOutcome separates one supplier group's offers into the matched and
// unmatched sets after all enabled strategies have run.
type MatchOutcome struct {
	Matched   []models.SupplierOffer
	Unmatched []models.SupplierOffer
}

// HasMatch reports whether any offer in the group found a catalog product,
// which flags the supplier for a bulk status update downstream.
func (o MatchOutcome) HasMatch() bool { return len(o.Matched) > 0 }

type mpnCandidate struct {
	norm    string
	product *models.Product
}

type titleCandidate struct {
	title   string
	product *models.Product
}

// Matcher resolves supplier offers against a bounded, pre-fetched candidate
// set of catalog products. It is built fresh per chunk and holds no state
// across chunks. Strategies run in priority order; an offer claimed by a
// higher-priority strategy never reaches the later ones.
type Matcher struct {
	priority []string

	byEAN         map[string]*models.Product
	byMPN         map[string]*models.Product
	byStrippedMPN map[string]*models.Product
	mpnCandidates []mpnCandidate

	byTitle         map[string]*models.Product
	titleCandidates []titleCandidate
}

// NewMatcher indexes the candidate products for the enabled strategies.
// When several candidates share a key the first one wins.
func NewMatcher(candidates []models.Product, priority []string) *Matcher {
	m := &Matcher{
		priority:      priority,
		byEAN:         make(map[string]*models.Product, len(candidates)),
		byMPN:         make(map[string]*models.Product, len(candidates)),
		byStrippedMPN: make(map[string]*models.Product, len(candidates)),
		byTitle:       make(map[string]*models.Product, len(candidates)),
	}
	for i := range candidates {
		p := &candidates[i]
		if p.EAN != "" {
			if _, ok := m.byEAN[p.EAN]; !ok {
				m.byEAN[p.EAN] = p
			}
		}
		if norm := NormalizeIdentifier(p.MPN); norm != "" {
			if _, ok := m.byMPN[norm]; !ok {
				m.byMPN[norm] = p
			}
			m.mpnCandidates = append(m.mpnCandidates, mpnCandidate{norm: norm, product: p})
			if stripped := strings.TrimLeft(norm, "0"); stripped != "" {
				if _, ok := m.byStrippedMPN[stripped]; !ok {
					m.byStrippedMPN[stripped] = p
				}
			}
		}
		if title := strings.ToLower(strings.TrimSpace(p.Title)); title != "" {
			if _, ok := m.byTitle[title]; !ok {
				m.byTitle[title] = p
			}
			m.titleCandidates = append(m.titleCandidates, titleCandidate{title: title, product: p})
		}
	}
	return m
}

// Match runs every enabled strategy over the group's offers. Each offer
// yields exactly one result: matched offers carry the product id, the
// winning strategy tag and, when their own EAN is blank, the product's EAN;
// unmatched offers are tagged none and get a placeholder EAN so they stay
// uniquely addressable in storage.
func (m *Matcher) Match(offers []models.SupplierOffer, supplierID string) MatchOutcome {
	now := time.Now()
	tags := make([]string, len(offers))
	products := make([]*models.Product, len(offers))

	for _, strategy := range m.priority {
		for i := range offers {
			if tags[i] != "" {
				continue
			}
			var p *models.Product
			switch strategy {
			case models.MatchMethodEAN:
				p = m.matchEAN(&offers[i])
			case models.MatchMethodMPN:
				p = m.matchMPN(&offers[i])
			case models.MatchMethodName:
				p = m.matchName(&offers[i])
			}
			if p != nil {
				tags[i] = strategy
				products[i] = p
			}
		}
	}

	var out MatchOutcome
	for i := range offers {
		offer := offers[i]
		offer.SupplierID = supplierID
		if tags[i] != "" {
			p := products[i]
			offer.ProductID = p.ID
			offer.MatchMethod = tags[i]
			if offer.EAN == "" {
				offer.EAN = p.EAN
				offer.PlaceholderEAN = p.PlaceholderEAN
			}
			out.Matched = append(out.Matched, offer)
			continue
		}
		offer.MatchMethod = models.MatchMethodNone
		if offer.EAN == "" {
			offer.EAN = MakePlaceholder(now, offer.ProductName+offer.Brand,
				supplierID,
				offer.MPN,
				offer.ProductName,
				offer.Brand,
				strconv.FormatFloat(offer.Cost, 'f', -1, 64),
				strconv.Itoa(offer.Stock))
			offer.PlaceholderEAN = true
		}
		out.Unmatched = append(out.Unmatched, offer)
	}
	return out
}

func (m *Matcher) matchEAN(offer *models.SupplierOffer) *models.Product {
	if offer.EAN == "" {
		return nil
	}
	return m.byEAN[offer.EAN]
}

// matchMPN tries exact normalized equality, then equality with leading
// zeros stripped from both sides, then substring containment in either
// direction for identifiers of at least 5 characters. The containment scan
// is linear; candidate sets are bounded per chunk.
func (m *Matcher) matchMPN(offer *models.SupplierOffer) *models.Product {
	norm := NormalizeIdentifier(offer.MPN)
	if norm == "" {
		return nil
	}
	if p, ok := m.byMPN[norm]; ok {
		return p
	}
	if stripped := strings.TrimLeft(norm, "0"); stripped != "" {
		if p, ok := m.byStrippedMPN[stripped]; ok {
			return p
		}
	}
	if len(norm) < 5 {
		return nil
	}
	for _, c := range m.mpnCandidates {
		if strings.Contains(c.norm, norm) || strings.Contains(norm, c.norm) {
			return c.product
		}
	}
	return nil
}

// matchName tries a case-insensitive exact title hit, then substring
// containment in either direction for names longer than 5 characters.
func (m *Matcher) matchName(offer *models.SupplierOffer) *models.Product {
	name := strings.ToLower(strings.TrimSpace(offer.ProductName))
	if name == "" {
		return nil
	}
	if p, ok := m.byTitle[name]; ok {
		return p
	}
	if len(name) <= 5 {
		return nil
	}
	for _, c := range m.titleCandidates {
		if strings.Contains(c.title, name) || strings.Contains(name, c.title) {
			return c.product
		}
	}
	return nil
}
