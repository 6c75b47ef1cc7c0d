package reports

// Input prefixes are bounded to respect model context limits.
const (
	classifyMaxChars = 2000
	extractMaxChars  = 6000
)

const classifySystemPrompt = `Tu es un expert médical qui analyse des documents.
Réponds UNIQUEMENT avec du JSON valide, sans aucun texte avant ou après.
Aucune explication, aucun markdown, juste le JSON.`

const classifyPromptHeader = `Analysez ce texte et déterminez si c'est un rapport médical ou un document de santé.

Répondez STRICTEMENT en JSON valide:
{
    "is_medical_report": true ou false,
    "confidence": nombre entre 0 et 100,
    "reason": "explication courte en français"
}

Texte à analyser:

`

const extractSystemPrompt = `Tu es un expert médical spécialisé dans l'extraction d'informations cliniques.
Ton rôle est de lire un rapport médical et en extraire les informations clés en format JSON.

Réponds UNIQUEMENT avec du JSON valide et complet, sans aucun texte avant ou après.
Pas de markdown, pas d'explications, juste le JSON bien formaté.`

const extractPromptHeader = `Analysez ce rapport médical et structurez TOUTES les informations en JSON.

Répondez avec STRICTEMENT ce JSON (complétez tous les champs disponibles):
{
    "patient": {
        "nom": "nom complet ou vide",
        "age": "âge numérique ou vide",
        "sexe": "M, F ou vide"
    },
    "diagnostic": ["liste des diagnostics observés"],
    "symptomes": ["liste des symptômes"],
    "traitements": ["liste des traitements prescrits"],
    "examens": ["liste des examens et résultats"],
    "resume_medical": "résumé clinique en 2-3 phrases",
    "medecin": "nom du médecin si disponible",
    "date_consultation": "date ou vide",
    "observations": "observations spéciales"
}

IMPORTANT:
- Les listes ne doivent jamais être vides, mettre au minimum 1 élément par catégorie trouvée
- Utiliser uniquement du français
- Être exhaustif dans l'extraction
- Valider que le JSON est bien structuré

Rapport médical à analyser:

`

func buildClassifyPrompt(fullText string) string {
	return classifyPromptHeader + truncateText(fullText, classifyMaxChars)
}

func buildExtractPrompt(fullText string) string {
	return extractPromptHeader + truncateText(fullText, extractMaxChars)
}

// truncateText cuts after max characters, not bytes, so accented text is
// never split mid-rune.
func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
