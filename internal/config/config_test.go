package config_test

import (
	"reflect"
	"testing"

	"github.com/mind-engage/mindengage-sheetgrader/internal/config"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "OCR_ENGINE", "GEMINI_API_KEY", "DEFAULT_MARKS", "LENIENT_SINGLE_ANSWER", "CORS_ORIGINS"} {
		t.Setenv(k, "")
	}
	cfg := config.FromEnv()
	if cfg.Mode != config.ModeOffline || cfg.HTTPAddr != ":8080" || cfg.DBDriver != "sqlite" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.OCREngine != "none" || cfg.DefaultMarks != 1 || cfg.LenientSingleAnswer {
		t.Fatalf("grading/ocr defaults = %+v", cfg)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"http://localhost:3000"}) {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("GEMINI_API_KEY", "k")
	t.Setenv("OCR_ENGINE", "")
	t.Setenv("DEFAULT_MARKS", "2.5")
	t.Setenv("LENIENT_SINGLE_ANSWER", "yes")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example ,")
	cfg := config.FromEnv()
	if cfg.DBDriver != "memory" || cfg.OCREngine != "gemini" {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.DefaultMarks != 2.5 || !cfg.LenientSingleAnswer {
		t.Fatalf("grading = %v %v", cfg.DefaultMarks, cfg.LenientSingleAnswer)
	}
	if !reflect.DeepEqual(cfg.CORSOrigins, []string{"https://a.example", "https://b.example"}) {
		t.Fatalf("CORSOrigins = %v", cfg.CORSOrigins)
	}

	t.Setenv("DEFAULT_MARKS", "-3")
	if got := config.FromEnv().DefaultMarks; got != 1 {
		t.Fatalf("negative DEFAULT_MARKS gave %v", got)
	}
}
