package dental

import "strings"

var (
	SideChoices = Choices{
		{"derecho", "Derecho"},
		{"izquierdo", "Izquierdo"},
	}
	NostrilChoices = Choices{
		{"derecha", "Derecha"},
		{"izquierda", "Izquierda"},
	}

	// SympatheticSymptoms are the signs of the silent sympathetic syndrome (SSS).
	SympatheticSymptoms = Choices{
		{"respiracion_oral", "Respiración oral / Boca seca"},
		{"calidad_sueno", "Calidad del sueño / Ronquido / Apnea"},
		{"gingivitis", "Gingivitis / Periodontal / Policaries"},
		{"faringitis", "Faringitis crónica"},
		{"atm", "Desorden ATM / CAT / Bruxismo"},
		{"reflujo", "Reflujo / Hernia de hiato / Digestivos"},
		{"cefaleas", "Cefaleas / Migrañas / Vértigos"},
		{"cervical", "Dolor cervical / Dolores varios"},
		{"patologia_homolateral", "Patología homolateral"},
		{"masticacion_unilateral", "Masticación unilateral"},
		{"astenia", "Astenia / Agotamiento"},
		{"ansiedad", "Ansiedad / Depresión"},
		{"alergias", "Alergias / Rinitis / Asma"},
		{"hipertension", "Hipertensión / Riesgo cardiovascular"},
	}

	// ProgramActivities are the daily tasks a patient can be assigned.
	ProgramActivities = Choices{
		{"enjuagues_manana", "Enjuagues con aceite de oliva por la mañana"},
		{"enjuagues_tarde", "Enjuagues con aceite de oliva por la tarde"},
		{"placa_relajacion", "PlacaConfort 3 ratos al día (relajación)"},
		{"placa_noche", "PlacaConfort todas las noches"},
		{"nariz_derecho", "NarizConfort lado derecho"},
		{"nariz_izquierdo", "NarizConfort lado izquierdo"},
		{"nariz_bilateral", "NarizConfort bilateral"},
		{"masticar_derecho", "Masticar por el lado derecho"},
		{"masticar_izquierdo", "Masticar por el lado izquierdo"},
		{"fruta_entera", "Comer fruta entera, a bocados"},
		{"evitar_carbonatadas", "Evitar bebidas carbonatadas"},
		{"reducir_refinados", "Reducir lácteos / Azúcar / Sal / Harinas"},
		{"no_comer_3h", "No comer 3h antes de dormir"},
		{"no_beber_2h", "No beber 2h antes de dormir"},
		{"no_pantallas_1h", "No pantallas 1h antes de dormir"},
		{"caminata", "Caminata diaria (1 hora)"},
		{"caminata_huesito", "Caminata con huesito en la boca"},
		{"labios_pegados", "Labios bien pegados durante la caminata"},
		{"pesas", "Levantar pesas (ganar masa muscular)"},
		{"reducir_tabaco_alcohol", "Reducir tabaco y alcohol"},
	}
)

const (
	maxFormText = 5000
	maxSizeText = 50
)

// HealthProgram is a patient's functional health programme: habits,
// function assessment, history and the assigned daily activities.
type HealthProgram struct {
	Smoker                bool     `json:"smoker"`
	Drinker               bool     `json:"drinker"`
	MasticationSide       string   `json:"mastication_side"`
	NasalWindow           string   `json:"nasal_window"`
	Symptoms              []string `json:"symptoms"`
	OtherConditions       string   `json:"other_conditions"`
	Medication            string   `json:"medication"`
	PreviousInterventions string   `json:"previous_interventions"`
	ExerciseHistory       string   `json:"exercise_history"`
	Activities            []string `json:"activities"`
	PlateSize             string   `json:"plate_size"`
	NoseSize              string   `json:"nose_size"`
}

func (p *HealthProgram) Normalize() {
	p.MasticationSide = strings.TrimSpace(p.MasticationSide)
	p.NasalWindow = strings.TrimSpace(p.NasalWindow)
	p.OtherConditions = strings.TrimSpace(p.OtherConditions)
	p.Medication = strings.TrimSpace(p.Medication)
	p.PreviousInterventions = strings.TrimSpace(p.PreviousInterventions)
	p.ExerciseHistory = strings.TrimSpace(p.ExerciseHistory)
	p.PlateSize = strings.TrimSpace(p.PlateSize)
	p.NoseSize = strings.TrimSpace(p.NoseSize)
	p.Symptoms = normalizeSet(p.Symptoms, SympatheticSymptoms)
	p.Activities = normalizeSet(p.Activities, ProgramActivities)
}

func (p *HealthProgram) Validate() error {
	if err := checkSets([]setField{
		{"symptoms", p.Symptoms, SympatheticSymptoms},
		{"activities", p.Activities, ProgramActivities},
	}); err != nil {
		return err
	}
	if err := checkChoices([]choiceField{
		{"mastication_side", p.MasticationSide, SideChoices},
		{"nasal_window", p.NasalWindow, NostrilChoices},
	}); err != nil {
		return err
	}
	return checkTexts([]textField{
		{"other_conditions", p.OtherConditions, maxFormText},
		{"medication", p.Medication, maxFormText},
		{"previous_interventions", p.PreviousInterventions, maxFormText},
		{"exercise_history", p.ExerciseHistory, maxFormText},
		{"plate_size", p.PlateSize, maxSizeText},
		{"nose_size", p.NoseSize, maxSizeText},
	})
}

// Sections lays the programme out for printing. Unanswered questions are left out.
func (p *HealthProgram) Sections() []Section {
	var b sectionBuilder

	b.start("Hábitos")
	b.add("Fumador", yesNo(p.Smoker))
	b.add("Bebedor", yesNo(p.Drinker))

	b.start("Evaluación de funciones")
	b.choice("Masticación", p.MasticationSide, SideChoices)
	b.choice("Ventana nasal predominante", p.NasalWindow, NostrilChoices)

	b.start("Síndrome simpático silencioso")
	b.set(p.Symptoms, SympatheticSymptoms)

	b.start("Antecedentes")
	b.add("Otras patologías", p.OtherConditions)
	b.add("Medicación", p.Medication)
	b.add("Intervenciones previas", p.PreviousInterventions)
	b.add("Ejercicio físico", p.ExerciseHistory)

	b.start("Actividades diarias")
	b.add("Talla PlacaConfort / DegluConfort", p.PlateSize)
	b.add("Talla NarizConfort", p.NoseSize)
	b.set(p.Activities, ProgramActivities)
	return b.sections
}
