package generators

var (
	textSchema = mustSchema(`{
		"type": "object",
		"required": ["text"],
		"properties": {"text": {"type": "string"}}
	}`)

	itemsSchema = mustSchema(`{
		"type": "object",
		"required": ["items"],
		"properties": {"items": {"type": "array", "items": {"type": "string"}}}
	}`)

	queriesSchema = mustSchema(`{
		"type": "object",
		"required": ["queries"],
		"properties": {"queries": {"type": "array", "items": {"type": "string"}}}
	}`)

	summariesSchema = mustSchema(`{
		"type": "object",
		"required": ["summaries"],
		"properties": {"summaries": {"type": "array", "items": {"type": ["string", "null"]}}}
	}`)

	fitSchema = mustSchema(`{
		"type": "object",
		"required": ["fitLevel"],
		"properties": {
			"fitLevel": {"type": "string"},
			"confidence": {"type": ["number", "string"]},
			"reasoning": {"type": "string"},
			"notes": {"type": "string"},
			"summaryLine": {"type": "string"}
		}
	}`)

	planSchema = mustSchema(`{
		"type": "object",
		"required": ["paragraph", "bullets"],
		"properties": {
			"paragraph": {"type": "string"},
			"bullets": {"type": "array", "items": {"type": "string"}},
			"cta_line": {"type": "string"}
		}
	}`)

	emailSchema = mustSchema(`{
		"type": "object",
		"required": ["email"],
		"properties": {"email": {"type": "string"}}
	}`)

	blurbsSchema = mustSchema(`{
		"type": "object",
		"required": ["blurbs"],
		"properties": {"blurbs": {"type": "array", "items": {"type": "string"}}}
	}`)

	chatSchema = mustSchema(`{
		"type": "object",
		"required": ["reply"],
		"properties": {
			"reply": {"type": "string"},
			"followups": {"type": "array", "items": {"type": "string"}},
			"updates": {"type": "object"}
		}
	}`)

	stringList = `{"type": "array", "items": {"type": "string"}}`

	briefSchema = mustSchema(`{
		"type": "object",
		"required": ["page1", "page2"],
		"properties": {
			"page1": {
				"type": "object",
				"properties": {
					"prospect_name": {"type": "string"},
					"prospect_title": {"type": "string"},
					"prospect_company": {"type": "string"},
					"prospect_location": {"type": "string"},
					"prospect_role_summary": {"type": "string"},
					"prospect_experience": ` + stringList + `,
					"prospect_skills": ` + stringList + `,
					"prospect_connections_or_activity": ` + stringList + `,
					"hooks": ` + stringList + `
				}
			},
			"page2": {
				"type": "object",
				"properties": {
					"company_overview": {"type": "string"},
					"company_recent_news": ` + stringList + `,
					"company_challenges": ` + stringList + `,
					"company_tech_stack": ` + stringList + `,
					"company_metrics": {"type": "string"},
					"company_sales_opportunity": {"type": "string"},
					"discovery_questions": ` + stringList + `
				}
			}
		}
	}`)
)
