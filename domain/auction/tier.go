package auction

// Classifier maps a quantity to a market tier using an ordered table of
// ascending thresholds. A quantity below the first threshold is level 1;
// each threshold it reaches bumps the level by one. Extending the market
// to more tiers means adding thresholds, not touching call sites.
type Classifier struct {
	thresholds []uint64
}

// NewClassifier builds a classifier from ascending lower bounds for
// levels 2 and up.
func NewClassifier(thresholds ...uint64) Classifier {
	return Classifier{thresholds: thresholds}
}

// DefaultClassifier implements the two-tier market: quantity < 5 is
// level 1, anything else level 2.
var DefaultClassifier = NewClassifier(5)

// IsZero reports whether the classifier was never configured, letting
// callers fall back to DefaultClassifier.
func (c Classifier) IsZero() bool { return c.thresholds == nil }

// Classify is deterministic and total; it never fails.
func (c Classifier) Classify(quantity uint64) Tier {
	level := uint32(1)
	for _, t := range c.thresholds {
		if quantity < t {
			break
		}
		level++
	}
	return Tier{Level: level}
}
