package leaguepedia

import (
	"context"

	"github.com/rosterpedia/roster-sync/internal/usecase"
)

// Provider adapts the scraping client to the shapes use cases consume.
type Provider struct {
	client *Client
}

func NewProvider(client *Client) *Provider {
	return &Provider{client: client}
}

func (p *Provider) FetchTeam(ctx context.Context, teamName string) (usecase.ExternalTeamPage, bool, error) {
	page, found, err := p.client.FetchTeamByName(ctx, teamName)
	if err != nil || !found {
		return usecase.ExternalTeamPage{}, false, err
	}

	return usecase.ExternalTeamPage{
		Name:        page.Name,
		Short:       page.Short,
		Region:      page.Region,
		OrgLocation: page.OrgLocation,
		Website:     page.Website,
		LogoURL:     page.LogoURL,
		IsDisbanded: page.IsDisbanded,
	}, true, nil
}

func (p *Provider) FetchRoster(ctx context.Context, teamName string) ([]usecase.ExternalPlayerProfile, error) {
	profiles, err := p.client.FetchTeamRoster(ctx, teamName)
	if err != nil {
		return nil, err
	}

	out := make([]usecase.ExternalPlayerProfile, 0, len(profiles))
	for _, profile := range profiles {
		out = append(out, usecase.ExternalPlayerProfile{
			IGN:          profile.IGN,
			RealName:     profile.RealName,
			Country:      profile.Country,
			Nationality:  profile.Nationality,
			Age:          profile.Age,
			Birthdate:    profile.Birthdate,
			Role:         profile.Role,
			DateJoined:   profile.DateJoined,
			ContractEnds: profile.ContractEnds,
		})
	}
	return out, nil
}
