package i18n

const (
	LangEnglish = "en"
	LangSpanish = "es"

	DefaultLanguage = LangEnglish
)

// UI string catalogs for the floor tablets. English is the fallback for
// any key a language is missing.
var catalogs = map[string]map[string]string{
	LangEnglish: {
		"welcome_title":   "Welcome to Warehouse Cycle Count",
		"welcome_sub":     "Loading your workspace…",
		"continue":        "Continue",
		"language":        "Language",
		"tab_dashboard":   "Live Dashboard",
		"tab_assign":      "Assignments",
		"tab_my_assign":   "My Assignments",
		"tab_settings":    "Settings",
		"sound":           "Sound (scan & submit)",
		"vibration":       "Vibration (scan & submit)",
		"tz":              "Timezone",
		"diag":            "Diagnostics",
		"ok":              "OK",
		"ready":           "Ready",
		"count_saved":     "Count saved",
		"new_assignment":  "New assignment at",
		"location_locked": "Location is locked by another counter",
		"footer":          "Built for speed, safety, and clarity on the warehouse floor.",
	},
	LangSpanish: {
		"welcome_title":   "Bienvenido a Conteo Cíclico (Almacén)",
		"welcome_sub":     "Cargando su espacio de trabajo…",
		"continue":        "Continuar",
		"language":        "Idioma",
		"tab_dashboard":   "Panel en Vivo",
		"tab_assign":      "Asignaciones",
		"tab_my_assign":   "Mis Asignaciones",
		"tab_settings":    "Configuración",
		"sound":           "Sonido (escaneo y enviar)",
		"vibration":       "Vibración (escaneo y enviar)",
		"tz":              "Zona horaria",
		"diag":            "Diagnóstico",
		"ok":              "OK",
		"ready":           "Listo",
		"count_saved":     "Conteo guardado",
		"new_assignment":  "Nueva asignación en",
		"location_locked": "La ubicación está bloqueada por otro contador",
		"footer":          "Hecho para velocidad, seguridad y claridad en el almacén.",
	},
}

func IsSupported(lang string) bool {
	_, ok := catalogs[lang]
	return ok
}

func Languages() []string {
	return []string{LangEnglish, LangSpanish}
}

// T resolves a UI string. Unknown languages fall back to English,
// unknown keys to the key itself so missing strings are visible rather
// than blank on the floor.
func T(lang, key string) string {
	catalog, ok := catalogs[lang]
	if !ok {
		catalog = catalogs[DefaultLanguage]
	}
	if value, ok := catalog[key]; ok {
		return value
	}
	if value, ok := catalogs[DefaultLanguage][key]; ok {
		return value
	}
	return key
}

// Catalog returns a copy of the full string table for a language,
// resolved against the English fallback.
func Catalog(lang string) map[string]string {
	if !IsSupported(lang) {
		lang = DefaultLanguage
	}

	out := make(map[string]string, len(catalogs[DefaultLanguage]))
	for key, value := range catalogs[DefaultLanguage] {
		out[key] = value
	}
	for key, value := range catalogs[lang] {
		out[key] = value
	}
	return out
}
