package i18n

// Translator retrieves localized messages for field error types.
// data provides optional rule metadata to embed in the message (for
// example, "expected" for a bound or length rule).
type Translator interface {
	Message(typ string, data map[string]string) string
}

// dictTranslator is the built-in dictionary-based Translator.
type dictTranslator struct{ lang string }

func (t dictTranslator) Message(typ string, data map[string]string) string {
	switch t.lang {
	case "ja":
		switch typ {
		case "required":
			return "必須項目です"
		case "min":
			return "値が小さすぎます"
		case "max":
			return "値が大きすぎます"
		case "minLength":
			return "短すぎます"
		case "maxLength":
			return "長すぎます"
		case "pattern":
			return "形式が不正です"
		case "validate":
			return "入力が不正です"
		}
	default: // "en"
		switch typ {
		case "required":
			return "this field is required"
		case "min":
			if e := data["expected"]; e != "" {
				return "must be at least " + e
			}
			return "value is too small"
		case "max":
			if e := data["expected"]; e != "" {
				return "must be at most " + e
			}
			return "value is too large"
		case "minLength":
			if e := data["expected"]; e != "" {
				return "must be at least " + e + " characters"
			}
			return "too short"
		case "maxLength":
			if e := data["expected"]; e != "" {
				return "must be at most " + e + " characters"
			}
			return "too long"
		case "pattern":
			return "does not match the expected format"
		case "validate":
			return "invalid value"
		}
	}
	return typ
}

var currentTranslator Translator = dictTranslator{lang: "en"}

// SetLanguage switches the built-in Translator language ("en"/"ja").
func SetLanguage(lang string) {
	if lang != "ja" {
		lang = "en"
	}
	currentTranslator = dictTranslator{lang: lang}
}

// SetTranslator replaces the Translator implementation (not limited to the
// dictionary version).
func SetTranslator(tr Translator) {
	if tr == nil {
		currentTranslator = dictTranslator{lang: "en"}
		return
	}
	currentTranslator = tr
}

// T fetches a message for the given error type using the current Translator.
func T(typ string, data map[string]string) string { return currentTranslator.Message(typ, data) }
