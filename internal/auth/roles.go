package auth

import "sort"

const (
	RoleSuperuser = "SUPERUSER"
	RoleAdmin     = "ADMIN"
	RoleDoctor    = "DOCTOR"
	RoleAssistant = "ASSISTANT"
)

type Resource string

type Action string

const (
	ResPatient           Resource = "patient"
	ResHistory           Resource = "history"
	ResTreatment         Resource = "treatment"
	ResPayment           Resource = "payment"
	ResNote              Resource = "note"
	ResOdontogram        Resource = "odontogram"
	ResOdontogramHistory Resource = "odontogram_history"
	ResClinicConfig      Resource = "clinic_config"
	ResAudit             Resource = "audit"
	ResUser              Resource = "user"
)

const (
	ActView   Action = "view"
	ActAdd    Action = "add"
	ActChange Action = "change"
	ActDelete Action = "delete"
)

var allActions = []Action{ActView, ActAdd, ActChange, ActDelete}

var permissions = map[string]map[Resource][]Action{
	RoleAdmin: {
		ResPatient:           allActions,
		ResHistory:           allActions,
		ResTreatment:         allActions,
		ResPayment:           allActions,
		ResNote:              allActions,
		ResOdontogram:        {ActView, ActAdd, ActChange},
		ResOdontogramHistory: {ActView},
		ResClinicConfig:      {ActView, ActChange},
		ResAudit:             {ActView},
		ResUser:              {ActView, ActAdd, ActChange},
	},
	RoleDoctor: {
		ResPatient:           {ActView, ActAdd, ActChange},
		ResHistory:           {ActView, ActAdd, ActChange},
		ResTreatment:         {ActView, ActAdd, ActChange},
		ResNote:              {ActView, ActAdd, ActChange},
		ResPayment:           {ActView},
		ResOdontogram:        {ActView, ActAdd, ActChange},
		ResOdontogramHistory: {ActView},
	},
	RoleAssistant: {
		ResPatient:    {ActView},
		ResTreatment:  {ActView},
		ResNote:       {ActView},
		ResOdontogram: {ActView},
	},
}

func IsValidRole(role string) bool {
	switch role {
	case RoleSuperuser, RoleAdmin, RoleDoctor, RoleAssistant:
		return true
	}
	return false
}

// HasPermission reports whether role may perform action on resource.
// SUPERUSER is allowed everything.
func HasPermission(role string, resource Resource, action Action) bool {
	if role == RoleSuperuser {
		return true
	}
	for _, a := range permissions[role][resource] {
		if a == action {
			return true
		}
	}
	return false
}

// Permissions lists "resource.action" codes for role, used by GET /api/me.
func Permissions(role string) []string {
	var out []string
	if role == RoleSuperuser {
		for _, res := range []Resource{ResPatient, ResHistory, ResTreatment, ResPayment, ResNote,
			ResOdontogram, ResOdontogramHistory, ResClinicConfig, ResAudit, ResUser} {
			for _, a := range allActions {
				out = append(out, string(res)+"."+string(a))
			}
		}
		sort.Strings(out)
		return out
	}
	for res, acts := range permissions[role] {
		for _, a := range acts {
			out = append(out, string(res)+"."+string(a))
		}
	}
	sort.Strings(out)
	return out
}
