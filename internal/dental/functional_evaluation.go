package dental

import "strings"

var (
	GrowthPatterns = Choices{{"braqui", "Braqui"}, {"meso", "Meso"}, {"dolico", "Dólico"}}
	Malocclusions  = Choices{{"clase_i", "Clase I"}, {"clase_ii", "Clase II"}, {"clase_iii", "Clase III"}}
	Crossbites     = Choices{{"anterior", "Anterior"}, {"derecha", "Derecha"}, {"izquierda", "Izquierda"}}
	Overbites      = Choices{{"grado_i", "Grado I"}, {"grado_ii", "Grado II"}}
	TonsilGrades   = Choices{{"grado_i", "Grado I"}, {"grado_ii", "Grado II"}, {"grado_iii", "Grado III"}}
	EatingTimes    = Choices{{"menos_20", "< 20 min"}, {"30_min", "30 min"}, {"mas_30", "> 30 min"}}

	TongueMobility = Choices{
		{"muy_suelta", "Al sacar la lengua alcanza la nariz: lengua muy suelta"},
		{"suelta", "Con la boca abierta la lengua llega al paladar: lengua suelta"},
		{"frenectomia_recomendable", "Con la boca abierta la lengua se queda a mitad de camino: frenectomía recomendable"},
		{"frenectomia_segura", "Con la boca abierta la lengua apenas sobrepasa los incisivos inferiores: frenectomía segura"},
	}

	Frequencies = Choices{
		{"ninguna", "Ninguna"},
		{"una", "Una"},
		{"dos", "Dos"},
		{"tres", "Tres"},
		{"mas_tres", "Más de tres"},
	}

	NightBreathing = Choices{
		{"boca_cerrada_sin_ruido", "Boca cerrada, sin ruido"},
		{"boca_cerrada_ronca", "Boca cerrada, ronca"},
		{"boca_abierta_ronca_babea", "Boca abierta, ronca y babea"},
	}
	SleepMobility = Choices{{"tranquilo", "Tranquilo"}, {"agitado", "Se mueve mucho o agitado"}}
	Bruxism       = Choices{{"centrico", "Céntrico"}, {"excentrico", "Excéntrico"}}
	WakeRecovery  = Choices{{"descansado", "Se levanta descansado"}, {"cuesta", "Le cuesta levantarse"}}

	FunctionLevels   = Choices{{"normal", "Normal"}, {"mejorable", "Mejorable"}, {"muy_mejorable", "Muy mejorable"}}
	BreathingLevels  = Choices{{"normal", "Normal (nasal)"}, {"mejorable", "Mejorable (mixta)"}, {"muy_mejorable", "Muy mejorable (oral)"}}
	Phonation        = Choices{{"normal", "Habla normal"}, {"dificultad", "Dificultad con algunas sílabas"}}
	PhysicalActivity = Choices{{"mucho", "Mucho ejercicio diario"}, {"esporadico", "Esporádico"}, {"no_hace", "No hace ejercicio"}}
	EatingHabits     = Choices{
		{"sano", "Come sano y a sus horas"},
		{"sano_snacks", "Come sano + snacks"},
		{"procesado", "Come mucho procesado y a deshora"},
	}
	ScreenHours  = Choices{{"no_usa", "No usa"}, {"1h", "1h"}, {"2h", "2h"}, {"3h", "3h"}}
	GeneralState = Choices{{"satisfactorio", "Satisfactorio"}, {"mejorable", "Mejorable"}, {"muy_mejorable", "Muy mejorable"}}

	// ClinicalFindings are the yes/no observations of the exam.
	ClinicalFindings = Choices{
		{"sellado_labial_reposo", "Sellado labial en reposo"},
		{"fascies_adenoidea", "Fascies adenoidea (ojeras)"},
		{"labios_cortados", "Labios cortados"},
		{"mordida_abierta", "Mordida abierta"},
		{"masticador_derecho", "Masticador derecho"},
		{"masticador_izquierdo", "Masticador izquierdo"},
		{"corta_bocados", "Corta a bocados"},
		{"aguanta_5min_sellado", "Aguanta 5 min con labios sellados"},
		{"dia_mantiene_sellado", "Durante el día mantiene el sellado labial"},
		{"durmiendo_mantiene_sellado", "Durmiendo mantiene el sellado labial"},
		{"respirador_oral", "Respirador oral"},
		{"traga_normalidad", "Traga con normalidad"},
		{"traga_dificultad", "Traga con dificultad"},
		{"lengua_entre_dientes", "Mete la lengua entre los dientes"},
		{"lengua_con_marcas", "Lengua con marcas en los bordes"},
	}

	FoodPreferences = Choices{{"yogurt", "Yogurt"}, {"manzana", "Manzana"}, {"naranja", "Naranja"}, {"zumo", "Zumo"}}

	TreatmentPlanItems = Choices{
		{"refuerzo_habitos", "Solo refuerzo de hábitos saludables"},
		{"placa_confort", "PlacaConfort y recomendaciones"},
		{"deglu_confort", "DegluConfort y recomendaciones"},
		{"nariz_confort", "NarizConfort y recomendaciones"},
		{"mascalin", "Mascalín (>5 años)"},
		{"retirada_lacteos", "Retirada lácteos (1 mes)"},
		{"evitar_azucar", "Evitar azúcar y harinas"},
		{"alimentos_duros", "Alimentos duros/correosos"},
		{"comer_sin_cubiertos", "Comer sin cubiertos"},
	}
)

const maxAllergyText = 255

// FunctionalEvaluation is the children's functional protocol: breathing,
// chewing, swallowing, sleep and the resulting plan.
type FunctionalEvaluation struct {
	NasalWindowClosed    string `json:"nasal_window_closed"`
	NasalWindowBetter    string `json:"nasal_window_better"`
	GrowthPattern        string `json:"growth_pattern"`
	Malocclusion         string `json:"malocclusion"`
	Crossbite            string `json:"crossbite"`
	Overbite             string `json:"overbite"`
	TonsilGrade          string `json:"tonsil_grade"`
	TonsilInflamedSide   string `json:"tonsil_inflamed_side"`
	EatingTime           string `json:"eating_time"`
	TongueMobility       string `json:"tongue_mobility"`
	ColdsLastYear        string `json:"colds_last_year"`
	RespiratoryIllnesses string `json:"respiratory_illnesses"`
	AntibioticsLastYear  string `json:"antibiotics_last_year"`
	NightBreathing       string `json:"night_breathing"`
	SleepMobility        string `json:"sleep_mobility"`
	Bruxism              string `json:"bruxism"`
	WakeRecovery         string `json:"wake_recovery"`
	MasticationFunction  string `json:"mastication_function"`
	BreathingFunction    string `json:"breathing_function"`
	SwallowingFunction   string `json:"swallowing_function"`
	Phonation            string `json:"phonation"`
	PhysicalActivity     string `json:"physical_activity"`
	EatingHabits         string `json:"eating_habits"`
	ScreenHours          string `json:"screen_hours"`
	GeneralState         string `json:"general_state"`
	PlanPreferredSide    string `json:"plan_preferred_side"`

	Findings    []string `json:"findings"`
	Preferences []string `json:"food_preferences"`
	Plan        []string `json:"plan"`

	Allergic          bool   `json:"allergic"`
	AllergicTo        string `json:"allergic_to"`
	RelevantHistory   string `json:"relevant_history"`
	CurrentIllness    string `json:"current_illness"`
	CurrentMedication string `json:"current_medication"`
}

func (e *FunctionalEvaluation) choiceFields() []choiceField {
	return []choiceField{
		{"nasal_window_closed", e.NasalWindowClosed, NostrilChoices},
		{"nasal_window_better", e.NasalWindowBetter, NostrilChoices},
		{"growth_pattern", e.GrowthPattern, GrowthPatterns},
		{"malocclusion", e.Malocclusion, Malocclusions},
		{"crossbite", e.Crossbite, Crossbites},
		{"overbite", e.Overbite, Overbites},
		{"tonsil_grade", e.TonsilGrade, TonsilGrades},
		{"tonsil_inflamed_side", e.TonsilInflamedSide, NostrilChoices},
		{"eating_time", e.EatingTime, EatingTimes},
		{"tongue_mobility", e.TongueMobility, TongueMobility},
		{"colds_last_year", e.ColdsLastYear, Frequencies},
		{"respiratory_illnesses", e.RespiratoryIllnesses, Frequencies},
		{"antibiotics_last_year", e.AntibioticsLastYear, Frequencies},
		{"night_breathing", e.NightBreathing, NightBreathing},
		{"sleep_mobility", e.SleepMobility, SleepMobility},
		{"bruxism", e.Bruxism, Bruxism},
		{"wake_recovery", e.WakeRecovery, WakeRecovery},
		{"mastication_function", e.MasticationFunction, FunctionLevels},
		{"breathing_function", e.BreathingFunction, BreathingLevels},
		{"swallowing_function", e.SwallowingFunction, FunctionLevels},
		{"phonation", e.Phonation, Phonation},
		{"physical_activity", e.PhysicalActivity, PhysicalActivity},
		{"eating_habits", e.EatingHabits, EatingHabits},
		{"screen_hours", e.ScreenHours, ScreenHours},
		{"general_state", e.GeneralState, GeneralState},
		{"plan_preferred_side", e.PlanPreferredSide, SideChoices},
	}
}

func (e *FunctionalEvaluation) Normalize() {
	for _, p := range []*string{
		&e.NasalWindowClosed, &e.NasalWindowBetter, &e.GrowthPattern, &e.Malocclusion,
		&e.Crossbite, &e.Overbite, &e.TonsilGrade, &e.TonsilInflamedSide, &e.EatingTime,
		&e.TongueMobility, &e.ColdsLastYear, &e.RespiratoryIllnesses, &e.AntibioticsLastYear,
		&e.NightBreathing, &e.SleepMobility, &e.Bruxism, &e.WakeRecovery,
		&e.MasticationFunction, &e.BreathingFunction, &e.SwallowingFunction, &e.Phonation,
		&e.PhysicalActivity, &e.EatingHabits, &e.ScreenHours, &e.GeneralState, &e.PlanPreferredSide,
		&e.AllergicTo, &e.RelevantHistory, &e.CurrentIllness, &e.CurrentMedication,
	} {
		*p = strings.TrimSpace(*p)
	}
	if !e.Allergic {
		e.AllergicTo = ""
	}
	e.Findings = normalizeSet(e.Findings, ClinicalFindings)
	e.Preferences = normalizeSet(e.Preferences, FoodPreferences)
	e.Plan = normalizeSet(e.Plan, TreatmentPlanItems)
}

func (e *FunctionalEvaluation) Validate() error {
	if err := checkSets([]setField{
		{"findings", e.Findings, ClinicalFindings},
		{"food_preferences", e.Preferences, FoodPreferences},
		{"plan", e.Plan, TreatmentPlanItems},
	}); err != nil {
		return err
	}
	if err := checkChoices(e.choiceFields()); err != nil {
		return err
	}
	return checkTexts([]textField{
		{"allergic_to", e.AllergicTo, maxAllergyText},
		{"relevant_history", e.RelevantHistory, maxFormText},
		{"current_illness", e.CurrentIllness, maxFormText},
		{"current_medication", e.CurrentMedication, maxFormText},
	})
}

func (e *FunctionalEvaluation) has(code string) bool {
	for _, c := range e.Findings {
		if c == code {
			return true
		}
	}
	return false
}

func (e *FunctionalEvaluation) findings(codes ...string) []string {
	var out []string
	for _, c := range codes {
		if e.has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Sections lays the evaluation out for printing. Unanswered questions are left out.
func (e *FunctionalEvaluation) Sections() []Section {
	var b sectionBuilder

	b.start("Exploración")
	b.choice("Ventana nasal más cerrada", e.NasalWindowClosed, NostrilChoices)
	b.choice("Respira mejor por", e.NasalWindowBetter, NostrilChoices)
	b.set(e.findings("sellado_labial_reposo", "fascies_adenoidea", "labios_cortados"), ClinicalFindings)
	b.choice("Patrón de crecimiento", e.GrowthPattern, GrowthPatterns)

	b.start("Oclusión y amígdalas")
	b.choice("Maloclusión", e.Malocclusion, Malocclusions)
	b.choice("Mordida cruzada", e.Crossbite, Crossbites)
	b.set(e.findings("mordida_abierta"), ClinicalFindings)
	b.choice("Sobremordida", e.Overbite, Overbites)
	b.choice("Amígdalas", e.TonsilGrade, TonsilGrades)
	b.choice("Amígdala más inflamada", e.TonsilInflamedSide, NostrilChoices)

	b.start("Capacidad masticatoria")
	b.set(e.findings("masticador_derecho", "masticador_izquierdo", "corta_bocados"), ClinicalFindings)
	if len(e.Preferences) > 0 {
		labels := make([]string, len(e.Preferences))
		for i, p := range e.Preferences {
			labels[i] = FoodPreferences.Label(p)
		}
		b.add("Prefiere", strings.Join(labels, ", "))
	}
	b.choice("Tiempo para comer", e.EatingTime, EatingTimes)
	b.set(e.findings("aguanta_5min_sellado", "dia_mantiene_sellado", "durmiendo_mantiene_sellado", "respirador_oral"), ClinicalFindings)

	b.start("Respiración y deglución")
	b.set(e.findings("traga_normalidad", "traga_dificultad", "lengua_entre_dientes", "lengua_con_marcas"), ClinicalFindings)
	b.choice("Lengua", e.TongueMobility, TongueMobility)

	b.start("Alergias e historial")
	b.add("Alérgico", yesNo(e.Allergic))
	b.add("Alérgico a", e.AllergicTo)
	b.choice("Resfríos último año", e.ColdsLastYear, Frequencies)
	b.choice("Amigdalitis / rinitis / otitis / bronquitis", e.RespiratoryIllnesses, Frequencies)
	b.choice("Antibióticos último año", e.AntibioticsLastYear, Frequencies)

	b.start("Sueño")
	b.choice("Respiración nocturna", e.NightBreathing, NightBreathing)
	b.choice("Al dormir", e.SleepMobility, SleepMobility)
	b.choice("Bruxismo", e.Bruxism, Bruxism)
	b.choice("Al despertar", e.WakeRecovery, WakeRecovery)

	b.start("Evaluación de funciones")
	b.choice("Masticación", e.MasticationFunction, FunctionLevels)
	b.choice("Respiración", e.BreathingFunction, BreathingLevels)
	b.choice("Deglución", e.SwallowingFunction, FunctionLevels)
	b.choice("Fonación", e.Phonation, Phonation)
	b.choice("Actividad física", e.PhysicalActivity, PhysicalActivity)
	b.choice("Hábitos alimentarios", e.EatingHabits, EatingHabits)
	b.choice("Pantallas", e.ScreenHours, ScreenHours)

	b.start("Estado general")
	b.choice("Estado", e.GeneralState, GeneralState)
	b.add("Antecedentes de interés", e.RelevantHistory)
	b.add("Enfermedad actual", e.CurrentIllness)
	b.add("Medicación actual", e.CurrentMedication)

	b.start("Plan de tratamiento")
	b.set(e.Plan, TreatmentPlanItems)
	b.choice("Comer por el lado", e.PlanPreferredSide, SideChoices)
	return b.sections
}
