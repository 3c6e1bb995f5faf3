// Package engine builds a sync plan from a parsed feed and the scanned OutputState,
// then drives the bounded-concurrency download worker pool. The two are combined in
// one package because this codebase keeps its own tightly coupled phases (reuse check,
// dispatch, collect) together rather than split across packages.
package engine

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"

	"podsync/internal/feed"
	"podsync/internal/filename"
	"podsync/internal/state"
)

// Plan is the output of CreateSyncPlan.
type Plan struct {
	ToDownload      []feed.Episode
	AlreadyPresent  int
	WithoutIdentity int
}

// CreateSyncPlan excludes already-downloaded episodes, sorts the rest newest-first by
// publication date (undated episodes at the tail, in feed order), and applies limit.
// Base-filename collisions among the episodes returned are resolved separately by
// BaseNames, which appends a short hash of the episode's identity key.
func CreateSyncPlan(episodes []feed.Episode, existing state.OutputState, limit *int) Plan {
	plan := Plan{}

	var candidates []feed.Episode
	for _, ep := range episodes {
		key := feed.IdentityKey(ep)
		if key == "" {
			plan.WithoutIdentity++
		}
		if _, present := existing[key]; present {
			plan.AlreadyPresent++
			continue
		}
		candidates = append(candidates, ep)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i].PubDate, candidates[j].PubDate
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})

	if limit != nil && *limit >= 0 && len(candidates) > *limit {
		candidates = candidates[:*limit]
	}

	plan.ToDownload = candidates
	return plan
}

// collisionSuffix derives the "-<8 lowercase hex chars>" suffix for a base-name
// collision, from the sha256 of the episode's identity key.
func collisionSuffix(identityKey string) string {
	sum := sha256.Sum256([]byte(identityKey))
	return hex.EncodeToString(sum[:])[:8]
}

// BaseNames assigns each episode in episodes its deterministic filename.BaseName,
// disambiguating any collision by appending collisionSuffix(identity key) — the two
// distinct episodes in a collision both get suffixed, so neither silently wins.
func BaseNames(episodes []feed.Episode) map[string]string {
	byBase := make(map[string][]feed.Episode)
	for _, ep := range episodes {
		b := filename.BaseName(ep)
		byBase[b] = append(byBase[b], ep)
	}

	result := make(map[string]string, len(episodes))
	for base, group := range byBase {
		if len(group) == 1 {
			result[feed.IdentityKey(group[0])] = base
			continue
		}
		for _, ep := range group {
			result[feed.IdentityKey(ep)] = base + "-" + collisionSuffix(feed.IdentityKey(ep))
		}
	}
	return result
}
