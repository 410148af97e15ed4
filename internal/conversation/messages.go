package conversation

import (
	"agendabot/internal/scheduling"
	"agendabot/pkg/model"
	"agendabot/pkg/sanitizer"
	"agendabot/pkg/whatsapp"
	"fmt"
	"strconv"
	"strings"
)

const (
	WelcomeMessage      = "¡Hola! Soy tu asistente de agendación. 👋"
	SupportMessage      = "Te pondré en contacto con un agente humano. Por favor, aguarda un momento."
	PromotionsMessage   = "Actualmente tenemos un 20% de descuento en limpiezas dentales. ¿Te interesa?"
	ApologyMessage      = "Lo siento, ocurrió un error en el flujo. ¿Podemos empezar de nuevo?"
	ClosingMessage      = "Estaremos encantados de verte cuando gustes."
	ServiceGoneMessage  = "Servicio no encontrado. Por favor, elige un servicio válido."
	NoDaysMessage       = "Por ahora no hay días disponibles para este servicio. Elige otro servicio."
	CancelledMessage    = "Agendación cancelada"
	CompletedMessage    = "Cita agendada con éxito 🎉"
	ConfirmPromptButton = "Por favor confirma los detalles de tu cita para finalizar."

	askServiceMessage = "¿Qué servicio deseas agendar?"
	noServiceMessage  = "No se encontró el servicio"
	servicesTitle     = "Servicios Disponibles"
	servicesButton    = "Ver Servicios"

	askDayMessage      = "¿Para qué día te gustaría agendar? (Ejemplo: Mañana, Lunes, o una fecha AAAA-MM-DD)"
	askDayAgainMessage = "Por favor selecciona la fecha deseada"
	daysTitle          = "Días disponibles"
	daysButton         = "Ver días"

	askTurnMessage      = "¿Para qué turno te gustaría agendar?"
	askTurnAgainMessage = "Por favor selecciona el turno deseado"
	turnsTitle          = "Turnos disponibles"
	turnsButton         = "Ver turnos"

	askTimeMessage      = "¿Para qué horario te gustaría agendar?"
	askTimeAgainMessage = "Por favor selecciona el horario deseado"
	timesTitle          = "Horarios disponibles"
	timesButton         = "Ver horarios"

	askNameMessage      = "Para finalizar, ¿podrías decirme tu nombre completo?"
	askNameAgainMessage = "Por favor ingresa un nombre válido para la cita."
	nameTitle           = "Tu nombre"
	nameButton          = "Opciones"

	confirmTitle  = "Confirmar Cita"
	confirmButton = "Confirmar"

	selectDescription = "Haz clic para seleccionar"
)

// Commands offered as list rows or buttons.
const (
	CancelProcessCommand = "Cancelar proceso"
	BackToServices       = "Volver al menú de servicios"
	BackToDays           = "Volver al menú de días"
	BackToTurns          = "Volver al menú de turnos"
	BackToTimes          = "Volver al menú de horarios"
	BackToName           = "Volver al menú de nombres"
	ConfirmOption        = "Sí, agendar"
	CancelOption         = "No, cancelar"
)

func serviceRows(services []*model.Service) []model.ListRow {
	rows := make([]model.ListRow, 0, len(services))
	for _, s := range services {
		row := model.ListRow{Title: s.Name}
		if s.Price != nil {
			row.Description = "$" + strconv.FormatFloat(*s.Price, 'f', -1, 64)
		}
		rows = append(rows, row)
	}
	return capRows(rows)
}

func serviceList(body string, services []*model.Service) model.OutboundMessage {
	return model.List(body, servicesTitle, servicesButton, serviceRows(services))
}

func dayList(body string, days []string) model.OutboundMessage {
	return model.List(body, daysTitle, daysButton, optionRows(days, ""))
}

func turnList(body string, turns []scheduling.Turn) model.OutboundMessage {
	labels := make([]string, 0, len(turns))
	for _, t := range turns {
		labels = append(labels, t.String())
	}
	return model.List(body, turnsTitle, turnsButton, optionRows(labels, BackToDays))
}

func timeList(body string, slots []string) model.OutboundMessage {
	return model.List(body, timesTitle, timesButton, optionRows(slots, BackToTurns))
}

func nameList(body string) model.OutboundMessage {
	return model.List(body, nameTitle, nameButton, []model.ListRow{
		{Title: BackToTimes, Description: "Elegir otro horario"},
		{Title: CancelProcessCommand, Description: "Salir sin agendar"},
	})
}

func confirmList(m model.Memory) model.OutboundMessage {
	body := fmt.Sprintf("Estás a punto de agendar: %s el %s a las %s. ¿Confirmas la cita?", m.ServiceName, m.Date, m.Time)
	return model.List(body, confirmTitle, confirmButton, []model.ListRow{
		{Title: ConfirmOption, Description: "Confirmar cita"},
		{Title: CancelOption, Description: CancelProcessCommand},
	})
}

func confirmButtons() model.OutboundMessage {
	return model.Buttons(ConfirmPromptButton, ConfirmOption, CancelOption)
}

func completedText(appointment *model.Appointment) model.OutboundMessage {
	return model.Text(fmt.Sprintf("%s\n%s el %s a las %s.\nFolio: %s",
		CompletedMessage,
		appointment.ServiceName,
		appointment.Date,
		appointment.Time,
		appointment.DisplayFolio(),
	))
}

// optionRows turns choices into list rows, keeping room for a trailing back
// row when one is given.
func optionRows(options []string, back string) []model.ListRow {
	limit := whatsapp.MaxRows
	if back != "" {
		limit--
	}
	if len(options) > limit {
		options = options[:limit]
	}
	rows := make([]model.ListRow, 0, len(options)+1)
	for _, o := range options {
		rows = append(rows, model.ListRow{Title: o, Description: selectDescription})
	}
	if back != "" {
		rows = append(rows, model.ListRow{Title: back})
	}
	return rows
}

func capRows(rows []model.ListRow) []model.ListRow {
	if len(rows) > whatsapp.MaxRows {
		return rows[:whatsapp.MaxRows]
	}
	return rows
}

// matches compares a reply against a known option, tolerating case, accents
// and a title the channel cut short with an ellipsis.
func matches(text, option string) bool {
	want := sanitizer.MatchKey(option)
	if want == "" {
		return false
	}
	if sanitizer.MatchKey(text) == want {
		return true
	}
	trimmed := whatsapp.TrimEllipsis(text)
	if trimmed == strings.TrimSpace(text) {
		return false
	}
	got := sanitizer.MatchKey(trimmed)
	return len(got) >= 3 && strings.HasPrefix(want, got)
}

// contains reports whether option appears inside free text.
func contains(text, option string) bool {
	want := sanitizer.MatchKey(option)
	return want != "" && strings.Contains(sanitizer.MatchKey(text), want)
}
