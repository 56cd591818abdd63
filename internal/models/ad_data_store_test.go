package models

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdDataStoreLookups(t *testing.T) {
	store := NewInMemoryAdDataStore()

	targeting := &TargetingCriteria{Geo: &GeoCriteria{Country: "US"}}
	require.NoError(t, store.ReloadAll(
		[]Ad{{ID: "ad-1", CampaignID: "camp-1", OrgID: "org-1", Active: true}},
		[]Campaign{{ID: "camp-1", OrgID: "org-1", Targeting: targeting, Active: true}},
		[]FrequencyCapPolicy{{
			OrgID:      "org-1",
			CampaignID: "camp-1",
			EventType:  EventImpression,
			Limit:      5,
			Window:     time.Hour,
		}},
	))

	ad := store.GetAd("ad-1")
	require.NotNil(t, ad)
	assert.Equal(t, "camp-1", ad.CampaignID)
	assert.Nil(t, store.GetAd("missing"))

	campaign := store.GetCampaign("camp-1")
	require.NotNil(t, campaign)
	assert.Equal(t, "org-1", campaign.OrgID)

	assert.Equal(t, targeting, store.GetCampaignTargeting("camp-1"))
	assert.Nil(t, store.GetCampaignTargeting("missing"))

	policy := store.GetFrequencyPolicy("org-1", "camp-1", EventImpression)
	require.NotNil(t, policy)
	assert.Equal(t, 5, policy.Limit)
	assert.Nil(t, store.GetFrequencyPolicy("org-1", "camp-1", EventClick))
}

func TestAdDataStorePartialSetters(t *testing.T) {
	store := NewInMemoryAdDataStore()
	require.NoError(t, store.ReloadAll(
		[]Ad{{ID: "ad-1", CampaignID: "camp-1"}},
		[]Campaign{{ID: "camp-1"}},
		nil,
	))

	// Replacing ads keeps campaigns intact.
	require.NoError(t, store.SetAds([]Ad{{ID: "ad-2", CampaignID: "camp-1"}}))
	assert.Nil(t, store.GetAd("ad-1"))
	assert.NotNil(t, store.GetAd("ad-2"))
	assert.NotNil(t, store.GetCampaign("camp-1"))
}

func TestAdDataStoreConcurrentReadsDuringReload(t *testing.T) {
	store := NewInMemoryAdDataStore()
	require.NoError(t, store.ReloadAll([]Ad{{ID: "ad-0", CampaignID: "camp-1"}}, nil, nil))

	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 1; i <= 100; i++ {
			ads := []Ad{{ID: fmt.Sprintf("ad-%d", i), CampaignID: "camp-1"}}
			_ = store.ReloadAll(ads, nil, nil)
		}
		close(stop)
	}()

	// Readers always observe a complete snapshot: exactly one ad.
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					assert.Len(t, store.GetAllAds(), 1)
				}
			}
		}()
	}
	wg.Wait()
}

func TestValidEventType(t *testing.T) {
	assert.True(t, ValidEventType(EventImpression))
	assert.True(t, ValidEventType(EventClick))
	assert.False(t, ValidEventType(""))
	assert.False(t, ValidEventType("conversion"))
}
