package blocks

// Slot names shared by the generator and the loaders.
const (
	SlotURL        = "URL"
	SlotHeaders    = "HEADERS"
	SlotBody       = "BODY"
	SlotAssertions = "ASSERTIONS"
	SlotContent    = "CONTENT"
	SlotPath       = "PATH"
	SlotValue      = "VALUE"
	SlotDuration   = "DURATION"
	SlotMessage    = "MESSAGE"
	SlotToken      = "TOKEN"
	SlotSecret     = "SECRET"

	FieldMethod   = "METHOD"
	FieldStatus   = "STATUS"
	FieldAuthType = "AUTH_TYPE"
	FieldText     = "TEXT"
	FieldNum      = "NUM"
	FieldBool     = "BOOL"

	JoinPrefix = "ADD"
)

// MaxJoinItems bounds the number of inputs a text_join may declare.
const MaxJoinItems = 100

const (
	AuthBearer = "BEARER"
	AuthBasic  = "BASIC"
)

// Methods accepted by the METHOD field, in dropdown order.
var Methods = []string{"GET", "POST", "PUT", "DELETE"}

// Statuses accepted by the STATUS field, in dropdown order.
var Statuses = []string{"200", "201", "400", "401", "404", "500"}

// Builtin returns a registry holding every kind the editor exposes.
func Builtin() *Registry {
	r := NewRegistry()

	r.Register(KindHTTPRequest, Shape{
		Label:   "Requête HTTP",
		Tooltip: "Effectue une requête HTTP avec assertions",
		Fields: []FieldSlot{
			{Name: FieldMethod, Options: Methods, Default: "GET"},
		},
		Values: []ValueSlot{
			{Name: SlotURL, Check: "String", Default: ""},
			{Name: SlotHeaders, Check: "String", Default: "{}"},
			{Name: SlotBody, Check: "String", Default: ""},
		},
		Statements: []string{SlotAssertions},
	})
	r.Register(KindAssertStatus, Shape{
		Label:   "Vérifier statut",
		Tooltip: "Vérifie que le statut de la réponse correspond",
		Fields: []FieldSlot{
			{Name: FieldStatus, Options: Statuses, Default: "200"},
		},
	})
	r.Register(KindAssertContains, Shape{
		Label:   "Vérifier que la réponse contient",
		Tooltip: "Vérifie que la réponse contient un texte spécifique",
		Values: []ValueSlot{
			{Name: SlotContent, Check: "String", Default: ""},
		},
	})
	r.Register(KindAssertJSONPath, Shape{
		Label:   "Vérifier JSON path",
		Tooltip: "Vérifie une valeur spécifique dans la réponse JSON",
		Values: []ValueSlot{
			{Name: SlotPath, Check: "String", Default: ""},
			{Name: SlotValue, Check: "String", Default: ""},
		},
	})
	r.Register(KindWait, Shape{
		Label:   "Attendre",
		Tooltip: "Attendre un certain nombre de secondes",
		Values: []ValueSlot{
			{Name: SlotDuration, Check: "Number", Default: float64(1)},
		},
	})
	r.Register(KindLog, Shape{
		Label:   "Afficher",
		Tooltip: "Affiche un message dans la console",
		Values: []ValueSlot{
			{Name: SlotMessage, Check: "String", Default: ""},
		},
	})
	r.Register(KindAuthRequest, Shape{
		Label:   "Authentification",
		Tooltip: "Ajoute une authentification à la requête",
		Fields: []FieldSlot{
			{Name: FieldAuthType, Options: []string{AuthBearer, AuthBasic}, Default: AuthBearer},
		},
		Values: []ValueSlot{
			{Name: SlotToken, Check: "String", Default: ""},
			{Name: SlotSecret, Check: "String", Default: ""},
		},
	})

	r.Register(KindText, Shape{
		Role:   RoleExpression,
		Label:  "texte",
		Fields: []FieldSlot{{Name: FieldText, Default: ""}},
	})
	r.Register(KindNumber, Shape{
		Role:   RoleExpression,
		Label:  "nombre",
		Fields: []FieldSlot{{Name: FieldNum, Default: "0"}},
	})
	r.Register(KindBoolean, Shape{
		Role:   RoleExpression,
		Label:  "booléen",
		Fields: []FieldSlot{{Name: FieldBool, Options: []string{"TRUE", "FALSE"}, Default: "TRUE"}},
	})
	r.Register(KindTextJoin, Shape{
		Role:           RoleExpression,
		Label:          "créer texte avec",
		VariadicPrefix: JoinPrefix,
	})

	return r
}
