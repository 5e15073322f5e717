package memory

import "github.com/rosterpedia/roster-sync/internal/domain/teamsource"

// SeedTeamSources is the default source fleet used when the service runs
// without a database, mirroring the operator-managed rows in production.
func SeedTeamSources() []teamsource.TeamSource {
	return []teamsource.TeamSource{
		{ID: "src-t1", ShortCode: "T1", LongName: "T1", ExternalURL: "https://lol.fandom.com/wiki/T1", Enabled: true},
		{ID: "src-geng", ShortCode: "GEN", LongName: "Gen.G Esports", ExternalURL: "https://lol.fandom.com/wiki/Gen.G_Esports", Enabled: true},
		{ID: "src-hle", ShortCode: "HLE", LongName: "Hanwha Life Esports", ExternalURL: "https://lol.fandom.com/wiki/Hanwha_Life_Esports", Enabled: true},
		{ID: "src-dk", ShortCode: "DK", LongName: "Dplus KIA", ExternalURL: "https://lol.fandom.com/wiki/Dplus_KIA", Enabled: true},
		{ID: "src-drx", ShortCode: "DRX", LongName: "DRX", ExternalURL: "https://lol.fandom.com/wiki/DRX", Enabled: true},
		{ID: "src-g2", ShortCode: "G2", LongName: "G2 Esports", ExternalURL: "https://lol.fandom.com/wiki/G2_Esports", Enabled: true},
		{ID: "src-fnc", ShortCode: "FNC", LongName: "Fnatic", ExternalURL: "https://lol.fandom.com/wiki/Fnatic", Enabled: true},
	}
}
