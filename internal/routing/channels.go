package routing

import (
	"sort"
	"strings"

	"github.com/juju/errors"

	"github.com/example/workorders/internal/domain"
)

// ChannelMap is the fixed status to destination mapping chosen at startup.
// A shared map sends every status to one channel and marks envelopes with a
// routing attribute so subscribers can filter.
type ChannelMap struct {
	channels map[domain.Status]string
	shared   bool
}

// PerStatus returns a map with one destination per status.
func PerStatus(channels map[domain.Status]string) ChannelMap {
	m := ChannelMap{channels: make(map[domain.Status]string, len(channels))}
	for status, ch := range channels {
		if ch != "" {
			m.channels[status] = ch
		}
	}
	return m
}

// Shared returns a map sending every status to channel.
func Shared(channel string) ChannelMap {
	m := ChannelMap{channels: make(map[domain.Status]string, 4), shared: true}
	if channel == "" {
		return m
	}
	for _, status := range domain.Statuses() {
		m.channels[status] = channel
	}
	return m
}

// Lookup returns the destination for status.
func (m ChannelMap) Lookup(status domain.Status) (string, bool) {
	ch, ok := m.channels[status]
	return ch, ok
}

// Filtered reports whether envelopes carry a routing attribute.
func (m ChannelMap) Filtered() bool {
	return m.shared
}

// Channels returns the distinct configured destinations, sorted.
func (m ChannelMap) Channels() []string {
	seen := make(map[string]struct{}, len(m.channels))
	var out []string
	for _, ch := range m.channels {
		if _, ok := seen[ch]; ok {
			continue
		}
		seen[ch] = struct{}{}
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Validate checks that every status has a destination.
func (m ChannelMap) Validate() error {
	var missing []string
	for _, status := range domain.Statuses() {
		if _, ok := m.channels[status]; !ok {
			missing = append(missing, string(status))
		}
	}
	if len(missing) > 0 {
		return errors.NotValidf("channel map without destinations for %s", strings.Join(missing, ", "))
	}
	return nil
}
