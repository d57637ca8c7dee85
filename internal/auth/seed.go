package auth

// SeedUser pairs a directory record with its initial secret.
type SeedUser struct {
	User   User
	Secret string
}

const defaultSeedSecret = "admin123"

// DefaultSeed returns the accounts provisioned on first start, one per role.
// Secrets are hashed through the configured Hasher before they are stored.
func DefaultSeed() []SeedUser {
	return []SeedUser{
		{
			User: User{
				Username:    "admin",
				DisplayName: "Administrator",
				Email:       "admin@translogica.fr",
				Role:        RoleAdmin,
				CIN:         "AB123456",
				City:        "Casablanca",
				Address:     "Boulevard Mohammed V",
			},
			Secret: defaultSeedSecret,
		},
		{
			User: User{
				Username:    "hr",
				DisplayName: "HR Manager",
				Email:       "hr@translogica.fr",
				Role:        RoleHR,
				CIN:         "K456789",
				City:        "Rabat",
				Address:     "Rue Hassan II",
			},
			Secret: defaultSeedSecret,
		},
		{
			User: User{
				Username:    "pl",
				DisplayName: "Planner",
				Email:       "planner@translogica.fr",
				Role:        RolePlanner,
				CIN:         "X987654",
				City:        "Marrakech",
				Address:     "Avenue des FAR",
			},
			Secret: defaultSeedSecret,
		},
		{
			User: User{
				Username:    "cl",
				DisplayName: "Commercial Agent",
				Email:       "commercial@translogica.fr",
				Role:        RoleCommercial,
				CIN:         "J234567",
				City:        "Fes",
				Address:     "Boulevard Zerktouni",
			},
			Secret: defaultSeedSecret,
		},
		{
			User: User{
				Username:    "ap",
				DisplayName: "Procurement Officer",
				Email:       "procurement@translogica.fr",
				Role:        RoleProcurement,
				CIN:         "BE789012",
				City:        "Tangier",
				Address:     "Avenue Mohammed VI",
			},
			Secret: defaultSeedSecret,
		},
		{
			User: User{
				Username:    "ch",
				DisplayName: "Operations Officer",
				Email:       "operations@translogica.fr",
				Role:        RoleOperations,
				CIN:         "C345678",
				City:        "Agadir",
				Address:     "Boulevard Anfa",
			},
			Secret: defaultSeedSecret,
		},
		{
			User: User{
				Username:    "chh",
				DisplayName: "Maintenance Officer",
				Email:       "maintenance@translogica.fr",
				Role:        RoleMaintenance,
				CIN:         "D901234",
				City:        "Meknes",
				Address:     "Rue Ibn Batouta",
			},
			Secret: defaultSeedSecret,
		},
	}
}
