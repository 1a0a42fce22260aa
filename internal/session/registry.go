package session

import (
	"sync"

	"hashchat/internal/relay"
)

type binding struct {
	userID string
	ch     relay.Channel
}

// Registry asocia user ids con los canales vivos de ese usuario.
// Un canal pertenece a lo sumo a un usuario; el ultimo Join manda.
// Seguro para uso concurrente.
type Registry struct {
	mu        sync.RWMutex
	byUser    map[string]map[string]relay.Channel
	byChannel map[string]binding
}

func NewRegistry() *Registry {
	return &Registry{
		byUser:    make(map[string]map[string]relay.Channel),
		byChannel: make(map[string]binding),
	}
}

// Join registra ch bajo userID. Repetirlo es idempotente; con otro userID re-asocia el canal.
func (r *Registry) Join(userID string, ch relay.Channel) {
	if ch == nil || userID == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := ch.ID()
	if prev, ok := r.byChannel[id]; ok {
		if prev.userID == userID {
			return
		}
		r.unbindLocked(id, prev.userID)
	}

	set, ok := r.byUser[userID]
	if !ok {
		set = make(map[string]relay.Channel)
		r.byUser[userID] = set
	}
	set[id] = ch
	r.byChannel[id] = binding{userID: userID, ch: ch}
}

func (r *Registry) Leave(ch relay.Channel) {
	if ch == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	id := ch.ID()
	if prev, ok := r.byChannel[id]; ok {
		r.unbindLocked(id, prev.userID)
	}
}

// SessionsFor devuelve una copia; el llamador puede iterarla mientras otros hacen Join/Leave.
func (r *Registry) SessionsFor(userID string) []relay.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.byUser[userID]
	out := make([]relay.Channel, 0, len(set))
	for _, ch := range set {
		out = append(out, ch)
	}
	return out
}

func (r *Registry) UserOf(ch relay.Channel) (string, bool) {
	if ch == nil {
		return "", false
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byChannel[ch.ID()]
	return b.userID, ok
}

// Len es la cantidad de canales registrados.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byChannel)
}

// Users es la cantidad de usuarios con al menos un canal.
func (r *Registry) Users() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byUser)
}

func (r *Registry) unbindLocked(channelID, userID string) {
	delete(r.byChannel, channelID)
	if set, ok := r.byUser[userID]; ok {
		delete(set, channelID)
		if len(set) == 0 {
			delete(r.byUser, userID)
		}
	}
}
