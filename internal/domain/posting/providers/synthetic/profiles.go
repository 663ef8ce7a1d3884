package synthetic

import (
	"time"

	"github.com/honeycarbs/jobingest/internal/domain"
)

// Profile is the vocabulary and numeric ranges one synthetic source draws from.
// Title templates substitute {q} with the query text.
type Profile struct {
	Source         domain.Source
	Companies      []string
	Locations      []string
	TitleTemplates []string
	Descriptions   []string
	// Skills follow the lowercased query in every posting
	Skills        []string
	RemotePercent int
	SalaryBase    int64
	SalarySpread  int64
	RangeBase     int64
	RangeSpread   int64
	// Cap bounds how many postings a single query can ever yield
	Cap       int
	URLPrefix string
	// MinLatency and LatencySpread shape the artificial response delay
	MinLatency    time.Duration
	LatencySpread time.Duration
}

// AdzunaProfile mimics Adzuna's traditional-employer listings
func AdzunaProfile() Profile {
	return Profile{
		Source: domain.SourceAdzuna,
		Companies: []string{
			"Reliance Industries", "Tata Group", "Mahindra Group", "Aditya Birla Group",
			"Godrej Group", "L&T", "ITC Limited", "Bajaj Group", "Wipro Consumer",
			"Asian Paints", "HDFC Bank", "ICICI Bank", "Kotak Mahindra", "Yes Bank",
		},
		Locations: []string{
			"Mumbai, Maharashtra", "Delhi, Delhi", "Bangalore, Karnataka",
			"Chennai, Tamil Nadu", "Kolkata, West Bengal", "Pune, Maharashtra",
			"Ahmedabad, Gujarat", "Surat, Gujarat", "Jaipur, Rajasthan",
		},
		TitleTemplates: []string{
			"{q} - Business Operations",
			"Deputy {q}",
			"{q} - Strategic Planning",
			"Regional {q}",
			"{q} - Business Development",
			"{q} - Finance & Operations",
			"Assistant {q}",
			"{q} - Corporate Affairs",
		},
		Descriptions: []string{
			"Excellent opportunity to work with one of India's leading organizations. Drive business growth and operational excellence.",
			"Join our leadership team and contribute to strategic decision-making while managing diverse business functions.",
			"We seek a dynamic professional to lead business initiatives and foster organizational growth in a collaborative environment.",
			"Take on challenging responsibilities in a growth-oriented company with strong market presence and expansion plans.",
			"Lead cross-functional teams and drive innovation in a traditional industry undergoing digital transformation.",
		},
		Skills:        []string{"business management", "strategic planning", "stakeholder management", "operations", "finance"},
		RemotePercent: 15,
		SalaryBase:    600000,
		SalarySpread:  1800000,
		RangeBase:     400000,
		RangeSpread:   800000,
		Cap:           12,
		URLPrefix:     "https://adzuna.in/synthetic-job-",
		MinLatency:    800 * time.Millisecond,
		LatencySpread: 1500 * time.Millisecond,
	}
}

// JSearchProfile mimics JSearch's technology-heavy listings
func JSearchProfile() Profile {
	return Profile{
		Source: domain.SourceJSearch,
		Companies: []string{
			"TCS", "Infosys", "Wipro", "HCL Technologies", "Tech Mahindra",
			"Cognizant", "Accenture India", "IBM India", "Microsoft India", "Amazon India",
			"Flipkart", "Swiggy", "Zomato", "Ola", "Paytm", "BYJU'S",
		},
		Locations: []string{
			"Bangalore, Karnataka", "Mumbai, Maharashtra", "Pune, Maharashtra",
			"Hyderabad, Telangana", "Chennai, Tamil Nadu", "Gurgaon, Haryana",
			"Noida, Uttar Pradesh", "Kolkata, West Bengal",
		},
		TitleTemplates: []string{
			"{q} - Technology",
			"Senior {q}",
			"{q} - Product Development",
			"Lead {q}",
			"{q} - Operations",
			"{q} - Digital Transformation",
			"{q} - Analytics",
			"Associate {q}",
		},
		Descriptions: []string{
			"Join our dynamic team and lead innovative projects in a fast-paced environment. We offer competitive compensation and excellent growth opportunities.",
			"We are looking for an experienced professional to drive strategic initiatives and manage cross-functional teams.",
			"Exciting opportunity to work with cutting-edge technology and make a significant impact on our business operations.",
			"Lead and mentor a team of professionals while driving operational excellence and customer satisfaction.",
			"Work on challenging projects with global impact while collaborating with diverse, talented teams.",
		},
		Skills:        []string{"leadership", "teamwork", "communication", "project management", "strategy", "analytics"},
		RemotePercent: 25,
		SalaryBase:    800000,
		SalarySpread:  2000000,
		RangeBase:     500000,
		RangeSpread:   1000000,
		Cap:           15,
		URLPrefix:     "https://jsearch.example.com/synthetic-job-",
		MinLatency:    time.Second,
		LatencySpread: 2 * time.Second,
	}
}
