package config

// Defaults returns the built-in configuration values. The marker and slot
// patterns match the phrasing the préfecture booking pages use today; they
// are configuration precisely because that phrasing changes.
func Defaults() map[string]interface{} {
	return map[string]interface{}{
		"url":                   "https://www.rdv-prefecture.interieur.gouv.fr/rdvpref/reservation/demarche/4443/creneau/",
		"refresh_seconds":       30,
		"screenshot_dir":        "screenshots",
		"watch_selector":        "body",
		"markers": []string{
			`aucun(?:e)?\s+cr[ée]neau\s+disponible`,
			`pas\s+de\s+cr[ée]neau`,
			`plus\s+de\s+plage\s+horaire`,
			`plus\s+de\s+disponibilit[ée]s?`,
			`aucune\s+disponibilit[ée]`,
		},
		"slot_patterns": []string{
			`\b\d{1,2}[:h]\d{2}\b`,
			`\b\d{1,2}h\b`,
		},
		"require_slot_evidence": false,
		"settle_millis":         500,
		"check_timeout_seconds": 15,
		"alert_message":         "RDV détecté: des créneaux semblent disponibles. File réserver!",
		"metrics_addr":          "",
		"headless":              false,
		"bell":                  true,
		"desktop_notify":        true,
		"verbose":               false,
	}
}
