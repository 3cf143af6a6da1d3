package i18n

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/jeandeaual/go-locale"
)

// EnvLang forces the language regardless of the system locale.
const EnvLang = "KEYPACER_LANG"

var (
	mu   sync.RWMutex
	lang string
)

var supported = []string{"pt", "es", "ru"}

var translations = map[string]map[string]string{
	"Set Slow-Down Factor": {
		"pt": "Definir fator de desaceleração",
		"es": "Establecer factor de desaceleración",
		"ru": "Множитель замедления",
	},
	"Please enter the new slow-down factor:": {
		"pt": "Informe o novo fator de desaceleração:",
		"es": "Introduzca el nuevo factor de desaceleración:",
		"ru": "Введите новый множитель замедления:",
	},
	"Set Speed-Up Factor": {
		"pt": "Definir fator de aceleração",
		"es": "Establecer factor de aceleración",
		"ru": "Множитель ускорения",
	},
	"Please enter the new speed-up factor:": {
		"pt": "Informe o novo fator de aceleração:",
		"es": "Introduzca el nuevo factor de aceleración:",
		"ru": "Введите новый множитель ускорения:",
	},
	"Set Base Interval": {
		"pt": "Definir intervalo base",
		"es": "Establecer intervalo base",
		"ru": "Базовый интервал",
	},
	"Please enter the new base interval (in milliseconds):": {
		"pt": "Informe o novo intervalo base (em milissegundos):",
		"es": "Introduzca el nuevo intervalo base (en milisegundos):",
		"ru": "Введите новый базовый интервал (в миллисекундах):",
	},
	"Set Rounds": {
		"pt": "Definir rodadas",
		"es": "Establecer rondas",
		"ru": "Число раундов",
	},
	"Please enter the new rounds:": {
		"pt": "Informe o novo número de rodadas:",
		"es": "Introduzca el nuevo número de rondas:",
		"ru": "Введите новое число раундов:",
	},
	"Invalid Input": {
		"pt": "Entrada inválida",
		"es": "Entrada no válida",
		"ru": "Неверный ввод",
	},
	"Invalid input. Please enter a valid number.": {
		"pt": "Entrada inválida. Informe um número válido.",
		"es": "Entrada no válida. Introduzca un número válido.",
		"ru": "Неверный ввод. Введите число.",
	},
	"Invalid input. Please enter a valid integer.": {
		"pt": "Entrada inválida. Informe um inteiro válido.",
		"es": "Entrada no válida. Introduzca un entero válido.",
		"ru": "Неверный ввод. Введите целое число.",
	},
	"%s must be greater than zero.": {
		"pt": "%s deve ser maior que zero.",
		"es": "%s debe ser mayor que cero.",
		"ru": "%s должно быть больше нуля.",
	},
	"%s is too large.": {
		"pt": "%s é grande demais.",
		"es": "%s es demasiado grande.",
		"ru": "%s слишком велико.",
	},
	"Multiplier": {
		"pt": "O multiplicador",
		"es": "El multiplicador",
		"ru": "Множитель",
	},
	"Base interval": {
		"pt": "O intervalo base",
		"es": "El intervalo base",
		"ru": "Базовый интервал",
	},
	"Rounds": {
		"pt": "O número de rodadas",
		"es": "El número de rondas",
		"ru": "Число раундов",
	},
	"OK": {
		"pt": "OK",
		"es": "Aceptar",
		"ru": "ОК",
	},
	"Cancel": {
		"pt": "Cancelar",
		"es": "Cancelar",
		"ru": "Отмена",
	},
	"Start": {
		"pt": "Iniciar",
		"es": "Iniciar",
		"ru": "Старт",
	},
	"Stop": {
		"pt": "Parar",
		"es": "Parar",
		"ru": "Стоп",
	},
	"Slow Down": {
		"pt": "Desacelerar",
		"es": "Desacelerar",
		"ru": "Медленнее",
	},
	"Speed Up": {
		"pt": "Acelerar",
		"es": "Acelerar",
		"ru": "Быстрее",
	},
	"Reset Interval": {
		"pt": "Resetar intervalo",
		"es": "Reiniciar intervalo",
		"ru": "Сбросить интервал",
	},
	"Reset All": {
		"pt": "Resetar tudo",
		"es": "Reiniciar todo",
		"ru": "Сбросить всё",
	},
	"Exit": {
		"pt": "Sair",
		"es": "Salir",
		"ru": "Выход",
	},
}

func init() {
	lang = Detect()
}

// Detect resolves the language from EnvLang, then the system locale, falling
// back to english.
func Detect() string {
	if forced := strings.TrimSpace(os.Getenv(EnvLang)); forced != "" {
		return Normalize(forced)
	}
	userLocales, err := locale.GetLocales()
	if err != nil || len(userLocales) == 0 {
		return "en"
	}
	return Normalize(userLocales[0])
}

// Normalize maps a locale such as "pt_BR" or "es-419" to a supported language.
func Normalize(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	for _, l := range supported {
		if strings.HasPrefix(tag, l) {
			return l
		}
	}
	return "en"
}

// SetLang overrides the detected language. An empty tag keeps the detection result.
func SetLang(tag string) {
	if strings.TrimSpace(tag) == "" {
		return
	}
	mu.Lock()
	lang = Normalize(tag)
	mu.Unlock()
}

func T(key string) string {
	mu.RLock()
	defer mu.RUnlock()
	if translated, ok := translations[key][lang]; ok {
		return translated
	}
	return key
}

// Tf translates a format string and applies args to it.
func Tf(key string, args ...any) string {
	return fmt.Sprintf(T(key), args...)
}

func GetLang() string {
	mu.RLock()
	defer mu.RUnlock()
	return lang
}
