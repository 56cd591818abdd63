package models

import (
	"errors"
	"sync/atomic"
)

// ErrNotFound is returned when an entity is not found in the data store
var ErrNotFound = errors.New("entity not found")

// AdDataStore provides thread-safe access to the campaign catalog consumed by
// the decision engine. The catalog (ads, campaigns, frequency policies) is
// owned by the dashboard CRUD layer; this store only holds a read-optimized
// snapshot of it with atomic bulk reload.
type AdDataStore interface {
	// Read operations (hot path)
	GetAd(adID string) *Ad
	GetCampaign(campaignID string) *Campaign
	GetCampaignTargeting(campaignID string) *TargetingCriteria
	GetFrequencyPolicy(orgID, campaignID, eventType string) *FrequencyCapPolicy

	// Iteration methods
	GetAllAds() []Ad
	GetAllCampaigns() []Campaign
	GetAllPolicies() []FrequencyCapPolicy

	// Write operations (reload path)
	SetAds(ads []Ad) error
	SetCampaigns(campaigns []Campaign) error
	SetPolicies(policies []FrequencyCapPolicy) error

	// Atomic bulk operations
	ReloadAll(ads []Ad, campaigns []Campaign, policies []FrequencyCapPolicy) error
}

type policyKey struct {
	orgID      string
	campaignID string
	eventType  string
}

// dataSnapshot is an immutable snapshot of the catalog.
type dataSnapshot struct {
	ads           []Ad
	adIndex       map[string]*Ad
	campaigns     []Campaign
	campaignIndex map[string]*Campaign
	policies      []FrequencyCapPolicy
	policyIndex   map[policyKey]*FrequencyCapPolicy
}

// InMemoryAdDataStore implements AdDataStore with atomic snapshot updates.
// Readers never block; writers build a full replacement snapshot and swap it.
type InMemoryAdDataStore struct {
	data atomic.Pointer[dataSnapshot]
}

// NewInMemoryAdDataStore creates an empty catalog store.
func NewInMemoryAdDataStore() *InMemoryAdDataStore {
	store := &InMemoryAdDataStore{}
	store.data.Store(newSnapshot(nil, nil, nil))
	return store
}

func newSnapshot(ads []Ad, campaigns []Campaign, policies []FrequencyCapPolicy) *dataSnapshot {
	snap := &dataSnapshot{
		ads:           ads,
		adIndex:       make(map[string]*Ad, len(ads)),
		campaigns:     campaigns,
		campaignIndex: make(map[string]*Campaign, len(campaigns)),
		policies:      policies,
		policyIndex:   make(map[policyKey]*FrequencyCapPolicy, len(policies)),
	}
	for i := range ads {
		snap.adIndex[ads[i].ID] = &ads[i]
	}
	for i := range campaigns {
		snap.campaignIndex[campaigns[i].ID] = &campaigns[i]
	}
	for i := range policies {
		p := &policies[i]
		snap.policyIndex[policyKey{p.OrgID, p.CampaignID, p.EventType}] = p
	}
	return snap
}

// GetAd retrieves an ad by ID, or nil if unknown.
func (s *InMemoryAdDataStore) GetAd(adID string) *Ad {
	return s.data.Load().adIndex[adID]
}

// GetCampaign retrieves a campaign by ID, or nil if unknown.
func (s *InMemoryAdDataStore) GetCampaign(campaignID string) *Campaign {
	return s.data.Load().campaignIndex[campaignID]
}

// GetCampaignTargeting returns the campaign-level criteria for a campaign,
// or nil when the campaign is unknown or untargeted.
func (s *InMemoryAdDataStore) GetCampaignTargeting(campaignID string) *TargetingCriteria {
	if c := s.GetCampaign(campaignID); c != nil {
		return c.Targeting
	}
	return nil
}

// GetFrequencyPolicy returns the configured cap policy for the triple, or nil
// when no policy is configured and defaults should apply.
func (s *InMemoryAdDataStore) GetFrequencyPolicy(orgID, campaignID, eventType string) *FrequencyCapPolicy {
	return s.data.Load().policyIndex[policyKey{orgID, campaignID, eventType}]
}

// GetAllAds returns a copy of all ads.
func (s *InMemoryAdDataStore) GetAllAds() []Ad {
	data := s.data.Load()
	result := make([]Ad, len(data.ads))
	copy(result, data.ads)
	return result
}

// GetAllCampaigns returns a copy of all campaigns.
func (s *InMemoryAdDataStore) GetAllCampaigns() []Campaign {
	data := s.data.Load()
	result := make([]Campaign, len(data.campaigns))
	copy(result, data.campaigns)
	return result
}

// GetAllPolicies returns a copy of all configured frequency policies.
func (s *InMemoryAdDataStore) GetAllPolicies() []FrequencyCapPolicy {
	data := s.data.Load()
	result := make([]FrequencyCapPolicy, len(data.policies))
	copy(result, data.policies)
	return result
}

// SetAds replaces the ad slice, keeping campaigns and policies.
func (s *InMemoryAdDataStore) SetAds(ads []Ad) error {
	current := s.data.Load()
	s.data.Store(newSnapshot(ads, current.campaigns, current.policies))
	return nil
}

// SetCampaigns replaces the campaign slice, keeping ads and policies.
func (s *InMemoryAdDataStore) SetCampaigns(campaigns []Campaign) error {
	current := s.data.Load()
	s.data.Store(newSnapshot(current.ads, campaigns, current.policies))
	return nil
}

// SetPolicies replaces the frequency policy slice, keeping ads and campaigns.
func (s *InMemoryAdDataStore) SetPolicies(policies []FrequencyCapPolicy) error {
	current := s.data.Load()
	s.data.Store(newSnapshot(current.ads, current.campaigns, policies))
	return nil
}

// ReloadAll atomically replaces the whole catalog in one snapshot swap.
func (s *InMemoryAdDataStore) ReloadAll(ads []Ad, campaigns []Campaign, policies []FrequencyCapPolicy) error {
	s.data.Store(newSnapshot(ads, campaigns, policies))
	return nil
}
