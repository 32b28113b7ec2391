package models

// User is an account on the analysis platform.
type User struct {
	Username      string `json:"username" yaml:"username"`
	Email         string `json:"email" yaml:"email"`
	DisplayName   string `json:"displayName,omitempty" yaml:"display_name,omitempty"`
	IsActive      bool   `json:"isActive" yaml:"is_active"`
	IsAnalyst     bool   `json:"isAnalyst" yaml:"is_analyst"`
	IsDataManager bool   `json:"isDataManager" yaml:"is_data_manager"`
	IsPM          bool   `json:"isPm" yaml:"is_pm"`
	IsSuperuser   bool   `json:"isSuperuser" yaml:"is_superuser"`
	DateJoined    string `json:"dateJoined,omitempty" yaml:"date_joined,omitempty"`
	LastLogin     string `json:"lastLogin,omitempty" yaml:"last_login,omitempty"`
}

// Name returns the display name, or the username when none is set.
func (u User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

// Roles returns the user's role flags as short labels.
func (u User) Roles() []string {
	var roles []string
	if u.IsSuperuser {
		roles = append(roles, "superuser")
	}
	if u.IsDataManager {
		roles = append(roles, "data-manager")
	}
	if u.IsPM {
		roles = append(roles, "pm")
	}
	if u.IsAnalyst {
		roles = append(roles, "analyst")
	}
	return roles
}
