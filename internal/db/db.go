package db

import (
	"fmt"

	"github.com/adlytic/addecision/internal/models"
)

// LoadCatalog reads campaigns, ads and frequency policies from Postgres,
// validates their relationships and atomically swaps them into the given
// catalog store.
func LoadCatalog(pg *Postgres, store models.AdDataStore) error {
	campaigns, err := pg.LoadCampaigns()
	if err != nil {
		return fmt.Errorf("load campaigns: %w", err)
	}
	campaignIDs := make(map[string]struct{}, len(campaigns))
	for _, c := range campaigns {
		campaignIDs[c.ID] = struct{}{}
	}

	ads, err := pg.LoadAds()
	if err != nil {
		return fmt.Errorf("load ads: %w", err)
	}
	for _, a := range ads {
		if _, ok := campaignIDs[a.CampaignID]; !ok {
			return fmt.Errorf("ad %s references undefined campaign %s", a.ID, a.CampaignID)
		}
	}

	policies, err := pg.LoadPolicies()
	if err != nil {
		return fmt.Errorf("load frequency policies: %w", err)
	}

	if err := store.ReloadAll(ads, campaigns, policies); err != nil {
		return fmt.Errorf("reload catalog: %w", err)
	}
	return nil
}
