package game

import (
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/nxyexiong/CardGameDemo/internal/core/data"
	"github.com/nxyexiong/CardGameDemo/internal/server"
)

// ClientInfo tracks the live connection bound to one seat. Instances are
// created at server start for every registered profile and never destroyed;
// only the Client binding changes as players connect and drop.
type ClientInfo struct {
	Seat      int
	ProfileID string
	Client    *server.Client
}

// Registry maps profile identifiers to seats and enforces at most one live
// connection per seat.
type Registry struct {
	logger    *logrus.Logger
	seats     []*ClientInfo
	byProfile map[string]*ClientInfo

	nameCaser cases.Caser
}

// NewRegistry builds the seat table from the registered profiles. Seat order
// follows the profile order given.
func NewRegistry(logger *logrus.Logger, profiles []data.Profile) *Registry {
	r := &Registry{
		logger:    logger,
		byProfile: make(map[string]*ClientInfo),
		nameCaser: cases.Title(language.English),
	}

	for i, profile := range profiles {
		info := &ClientInfo{Seat: i, ProfileID: profile.ProfileID}
		r.seats = append(r.seats, info)
		r.byProfile[profile.ProfileID] = info
	}

	return r
}

// SeatCount returns the number of configured seats.
func (r *Registry) SeatCount() int {
	return len(r.seats)
}

// Seats returns the seat table in seat order.
func (r *Registry) Seats() []*ClientInfo {
	return r.seats
}

// Bind attaches a connection to the seat registered for profileID. An unknown
// profile is rejected. A repeated handshake for an already-bound profile
// replaces the previous connection: the seat follows the newest socket.
func (r *Registry) Bind(profileID string, c *server.Client) (*ClientInfo, bool) {
	info, ok := r.byProfile[profileID]
	if !ok {
		r.logger.Warnf("handshake from %s with unknown profile id %q", c.RemoteKey(), profileID)
		return nil, false
	}

	if info.Client != nil && info.Client != c {
		r.logger.Infof("profile %q rebound from %s to %s",
			profileID, info.Client.RemoteKey(), c.RemoteKey())
	}
	info.Client = c

	return info, true
}

// Unbind clears the seat binding for a dropped connection, returning the seat
// that was bound to it (or nil). The seat itself remains in the round; it
// just becomes unreachable until the profile reconnects.
func (r *Registry) Unbind(c *server.Client) *ClientInfo {
	for _, info := range r.seats {
		if info.Client == c {
			info.Client = nil
			return info
		}
	}
	return nil
}

// LookupByClient resolves the seat currently bound to the connection.
func (r *Registry) LookupByClient(c *server.Client) *ClientInfo {
	for _, info := range r.seats {
		if info.Client == c {
			return info
		}
	}
	return nil
}

// AllSeatsBound reports whether every configured seat has a live connection.
func (r *Registry) AllSeatsBound() bool {
	for _, info := range r.seats {
		if info.Client == nil {
			return false
		}
	}
	return true
}

// NormalizeDisplayName trims and title-cases a player-supplied display name.
func (r *Registry) NormalizeDisplayName(name string) string {
	return r.nameCaser.String(strings.TrimSpace(name))
}
