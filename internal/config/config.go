package config

import (
	"os"
	"strconv"
	"strings"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string // sqlite|postgres|memory
	DBDSN    string

	BlobBasePath string // scan uploads

	AuthHMACSecret string
	AdminUser      string
	AdminPassHash  string // bcrypt
	Users          string // "name:role:bcrypt,..."

	CORSOrigins []string

	// OCR
	OCREngine     string // gemini|tesseract|none
	GeminiAPIKey  string
	GeminiModel   string
	TesseractLang string

	// Grading policy
	DefaultMarks        float64
	LenientSingleAnswer bool
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	defOrigins := "http://localhost:3000"
	if mode == ModeOnline {
		defOrigins = ""
	}
	gemini := os.Getenv("GEMINI_API_KEY")
	defEngine := "none"
	if gemini != "" {
		defEngine = "gemini"
	}
	return Config{
		Mode:                mode,
		HTTPAddr:            envOr("HTTP_ADDR", ":8080"),
		DBDriver:            envOr("DB_DRIVER", "sqlite"),
		DBDSN:               envOr("DB_DSN", ""),
		BlobBasePath:        envOr("BLOB_BASE_PATH", "./data"),
		AuthHMACSecret:      envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		AdminUser:           envOr("ADMIN_USER", "admin"),
		AdminPassHash:       os.Getenv("ADMIN_PASS_HASH"),
		Users:               os.Getenv("USERS"),
		CORSOrigins:         csvOr("CORS_ORIGINS", defOrigins),
		OCREngine:           strings.ToLower(envOr("OCR_ENGINE", defEngine)),
		GeminiAPIKey:        gemini,
		GeminiModel:         os.Getenv("GEMINI_MODEL"),
		TesseractLang:       envOr("TESSERACT_LANG", "eng"),
		DefaultMarks:        envFloat("DEFAULT_MARKS", 1),
		LenientSingleAnswer: envBool("LENIENT_SINGLE_ANSWER", false),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}
func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}
func envFloat(k string, def float64) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(os.Getenv(k)), 64)
	if err != nil || v < 0 {
		return def
	}
	return v
}
func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
