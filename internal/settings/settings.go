package settings

// Settings is the application-wide configuration aggregate. It is stored as
// one document and every field has a defined default, so a fresh install
// behaves without any setup step.
type Settings struct {
	UserName            string `json:"userName"`
	WebAppURL           string `json:"webAppUrl"`
	ThemeMode           string `json:"themeMode"`
	PrimaryColor        string `json:"primaryColor"`
	FontSize            string `json:"fontSize"`
	Language            string `json:"language"`
	DateFormat          string `json:"dateFormat"`
	DataRetentionPeriod string `json:"dataRetentionPeriod"`
	AutoLogoutDuration  string `json:"autoLogoutDuration"`
}

func Defaults() Settings {
	return Settings{
		UserName:            "PK BS Nghi",
		WebAppURL:           "",
		ThemeMode:           "light",
		PrimaryColor:        "blue",
		FontSize:            "md",
		Language:            "vi",
		DateFormat:          "dd/mm/yyyy",
		DataRetentionPeriod: "12m",
		AutoLogoutDuration:  "1h",
	}
}

var allowed = map[string][]string{
	"themeMode":           {"light", "dark"},
	"primaryColor":        {"blue", "green", "purple", "red", "orange"},
	"fontSize":            {"sm", "md", "lg"},
	"language":            {"vi", "en"},
	"dateFormat":          {"dd/mm/yyyy", "mm/dd/yyyy"},
	"dataRetentionPeriod": {"6m", "12m", "24m", "all"},
	"autoLogoutDuration":  {"15m", "30m", "1h", "never"},
}

func valid(field, value string) bool {
	for _, v := range allowed[field] {
		if v == value {
			return true
		}
	}
	return false
}
