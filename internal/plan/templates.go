package plan

import (
	"errors"
	"fmt"
	"sort"
)

var ErrUnknownTemplate = errors.New("unknown plan template")

// SlotKey names a time-of-day bucket within a program day.
type SlotKey string

const (
	SlotMorning   SlotKey = "morning"
	SlotBreakfast SlotKey = "breakfast"
	SlotLunch     SlotKey = "lunch"
	SlotEvening   SlotKey = "evening"
	SlotDinner    SlotKey = "dinner"
	SlotTherapy   SlotKey = "therapy"
)

// SlotInfo is a catalogue entry: canonical display time and name.
type SlotInfo struct {
	Key  SlotKey
	Time string
	Name string
}

// Catalogue lists every slot in display order. The therapy time is supplied
// per program, so its catalogue time is empty.
var Catalogue = []SlotInfo{
	{Key: SlotMorning, Time: "07:00", Name: "Morning"},
	{Key: SlotBreakfast, Time: "09:00", Name: "Breakfast"},
	{Key: SlotLunch, Time: "13:00", Name: "Lunch"},
	{Key: SlotEvening, Time: "17:00", Name: "Evening"},
	{Key: SlotDinner, Time: "20:00", Name: "Dinner"},
	{Key: SlotTherapy, Name: "Therapy"},
}

// DayPlan maps slot keys to the planned activity for one template day.
type DayPlan map[SlotKey]string

// Template is a fixed treatment-plan catalogue entry.
type Template struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Type        string          `json:"type"`
	Duration    int             `json:"duration"`
	Precautions []string        `json:"precautions"`
	Days        map[int]DayPlan `json:"days"`
}

var (
	generalPrecautions = []string{
		"Avoid heavy exercise during detox",
		"Stay hydrated throughout the day",
		"No junk food or processed foods",
		"Get adequate sleep (7-8 hours)",
		"Listen to your body and rest when needed",
	}
	diabetesPrecautions = []string{
		"Monitor blood sugar 3-4 times daily",
		"Avoid fruit-only or juice-only meals",
		"Always carry emergency snack for hypoglycemia",
		"Include protein in every meal",
		"Check blood sugar before and after meals",
	}
)

var templates = map[string]Template{}

func init() {
	for _, t := range []Template{
		weightLossShort(),
		weightLossFull(),
		diabetesShort(),
		diabetesFull(),
	} {
		templates[t.ID] = t
	}
}

// Lookup returns the template registered under id.
func Lookup(id string) (Template, error) {
	t, ok := templates[id]
	if !ok {
		return Template{}, fmt.Errorf("%w: %q", ErrUnknownTemplate, id)
	}
	return t.clone(), nil
}

// Templates returns every built-in template ordered by id.
func Templates() []Template {
	out := make([]Template, 0, len(templates))
	for _, t := range templates {
		out = append(out, t.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// clone copies the day plans and precautions so callers cannot reach the
// registry.
func (t Template) clone() Template {
	out := t
	out.Precautions = append([]string(nil), t.Precautions...)
	out.Days = make(map[int]DayPlan, len(t.Days))
	for n, p := range t.Days {
		dp := make(DayPlan, len(p))
		for k, v := range p {
			dp[k] = v
		}
		out.Days[n] = dp
	}
	return out
}

func fill(days map[int]DayPlan, from, to int, p DayPlan) {
	for d := from; d <= to; d++ {
		days[d] = p
	}
}

func combine(lists ...[]string) []string {
	var out []string
	for _, l := range lists {
		out = append(out, l...)
	}
	return out
}

func weightLossShort() Template {
	days := make(map[int]DayPlan, 7)
	fill(days, 1, 7, DayPlan{
		SlotMorning:   "Warm lemon water with honey",
		SlotBreakfast: "Seasonal fruits (apple, papaya, berries)",
		SlotLunch:     "Vegetable soup with minimal salt",
		SlotEvening:   "Herbal tea (green tea or chamomile)",
		SlotDinner:    "Steamed vegetables with dal water",
		SlotTherapy:   "Light walk (30 minutes) or yoga",
	})
	return Template{
		ID:          "weight_loss_short",
		Name:        "Weight Loss - Short (7 Days)",
		Type:        "weight_loss",
		Duration:    7,
		Precautions: combine(generalPrecautions),
		Days:        days,
	}
}

func weightLossFull() Template {
	days := make(map[int]DayPlan, 14)

	// light meals, day 2 liquid only
	fill(days, 1, 4, DayPlan{
		SlotMorning:   "Warm lemon water with honey",
		SlotBreakfast: "Seasonal fruits",
		SlotLunch:     "Light vegetable soup",
		SlotEvening:   "Herbal tea",
		SlotDinner:    "Steamed vegetables",
		SlotTherapy:   "Light yoga (30 minutes)",
	})
	days[2] = DayPlan{
		SlotMorning:   "Warm lemon water",
		SlotBreakfast: "Coconut water",
		SlotLunch:     "Vegetable soup (liquid only)",
		SlotEvening:   "Herbal tea",
		SlotDinner:    "Fruit smoothie",
		SlotTherapy:   "Meditation (20 minutes)",
	}
	fill(days, 5, 8, DayPlan{
		SlotMorning:   "Probiotic drink (buttermilk)",
		SlotBreakfast: "Oats porridge with fruits",
		SlotLunch:     "Moong dal soup with vegetables",
		SlotEvening:   "Herbal tea with ginger",
		SlotDinner:    "Mono meal (only one type of grain)",
		SlotTherapy:   "Walking + meditation (45 minutes)",
	})
	fill(days, 9, 12, DayPlan{
		SlotMorning:   "Warm water with lemon",
		SlotBreakfast: "Millet porridge with nuts",
		SlotLunch:     "Brown rice with dal and vegetables",
		SlotEvening:   "Herbal tea",
		SlotDinner:    "Paneer with steamed vegetables",
		SlotTherapy:   "Yoga + light exercise (1 hour)",
	})
	fill(days, 13, 14, DayPlan{
		SlotMorning:   "Warm lemon water",
		SlotBreakfast: "Balanced breakfast (oats + fruits)",
		SlotLunch:     "Normal meal (rice + dal + vegetables)",
		SlotEvening:   "Herbal tea",
		SlotDinner:    "Light dinner (soup + salad)",
		SlotTherapy:   "Regular exercise routine",
	})
	return Template{
		ID:          "weight_loss_full",
		Name:        "Weight Loss - Full (14 Days)",
		Type:        "weight_loss",
		Duration:    14,
		Precautions: combine(generalPrecautions),
		Days:        days,
	}
}

func diabetesShort() Template {
	days := make(map[int]DayPlan, 7)
	fill(days, 1, 7, DayPlan{
		SlotMorning:   "Warm water with cinnamon",
		SlotBreakfast: "Oats with nuts and seeds",
		SlotLunch:     "Moong dal soup with vegetables",
		SlotEvening:   "Herbal tea (fenugreek)",
		SlotDinner:    "Steamed vegetables with dal",
		SlotTherapy:   "Light walk (30 minutes)",
	})
	return Template{
		ID:          "diabetes_short",
		Name:        "Diabetes - Short (7 Days)",
		Type:        "diabetes",
		Duration:    7,
		Precautions: combine(generalPrecautions, diabetesPrecautions),
		Days:        days,
	}
}

func diabetesFull() Template {
	days := make(map[int]DayPlan, 14)

	// day 3 is a controlled liquid day
	fill(days, 1, 4, DayPlan{
		SlotMorning:   "Warm water with cinnamon",
		SlotBreakfast: "Oats with nuts",
		SlotLunch:     "Moong dal khichdi",
		SlotEvening:   "Herbal tea (fenugreek)",
		SlotDinner:    "Steamed vegetables with dal",
		SlotTherapy:   "Light walk (30 minutes)",
	})
	days[3] = DayPlan{
		SlotMorning:   "Warm water with cinnamon",
		SlotBreakfast: "Vegetable soup (liquid)",
		SlotLunch:     "Dal water with minimal salt",
		SlotEvening:   "Herbal tea (fenugreek)",
		SlotDinner:    "Fruit smoothie (low sugar)",
		SlotTherapy:   "Meditation (20 minutes)",
	}
	fill(days, 5, 8, DayPlan{
		SlotMorning:   "Probiotic drink (buttermilk)",
		SlotBreakfast: "Quinoa porridge with nuts",
		SlotLunch:     "Moong dal with vegetables",
		SlotEvening:   "Herbal tea (fenugreek)",
		SlotDinner:    "Mono meal (only one type of grain)",
		SlotTherapy:   "Walking + meditation (45 minutes)",
	})
	fill(days, 9, 12, DayPlan{
		SlotMorning:   "Warm water with cinnamon",
		SlotBreakfast: "Oats with sprouts and nuts",
		SlotLunch:     "Balanced thali (rice + dal + vegetables)",
		SlotEvening:   "Herbal tea (fenugreek)",
		SlotDinner:    "Paneer with steamed vegetables",
		SlotTherapy:   "Yoga + light exercise (1 hour)",
	})
	fill(days, 13, 14, DayPlan{
		SlotMorning:   "Warm water with cinnamon",
		SlotBreakfast: "Oats with fruits and nuts",
		SlotLunch:     "Roti with dal and sabzi",
		SlotEvening:   "Herbal tea (fenugreek)",
		SlotDinner:    "Khichdi with curd",
		SlotTherapy:   "Regular exercise routine",
	})
	return Template{
		ID:          "diabetes_full",
		Name:        "Diabetes - Full (14 Days)",
		Type:        "diabetes",
		Duration:    14,
		Precautions: combine(generalPrecautions, diabetesPrecautions),
		Days:        days,
	}
}
