package keywords

var stopwords = []string{
	"a", "an", "and", "the", "or", "of", "to", "in", "on", "at", "by", "for",
	"with", "from", "as", "is", "are", "was", "were", "be", "been", "being",
	"this", "that", "these", "those", "it", "its", "we", "our", "you", "your",
	"they", "their", "he", "she", "his", "her", "i", "me", "my", "us", "them",
	"will", "can", "could", "should", "would", "may", "might", "must", "shall",
	"have", "has", "had", "do", "does", "did", "not", "no", "but", "if", "than",
	"then", "so", "such", "also", "all", "any", "each", "more", "most", "other",
	"some", "into", "about", "over", "under", "up", "out", "who", "what", "which",
	"how", "when", "where", "why", "etc", "e.g", "i.e", "per", "via",
}

// noise covers words that appear in every resume or posting and say nothing
// about a skill.
var noise = []string{
	"january", "february", "march", "april", "may", "june", "july", "august",
	"september", "october", "november", "december",
	"jan", "feb", "mar", "apr", "jun", "jul", "aug", "sep", "sept", "oct", "nov", "dec",
	"present", "current", "year", "years", "month", "months",
	"email", "e-mail", "phone", "tel", "mobile", "address", "linkedin.com", "www",
	"resume", "cv", "curriculum", "vitae", "references", "objective", "summary",
	"job", "role", "position", "candidate", "company", "opportunity", "responsibilities",
	"requirements", "qualifications", "benefits", "salary", "description",
}

// techLexicon is always kept when present, regardless of the part-of-speech tag.
var techLexicon = []string{
	"go", "golang", "python", "java", "javascript", "typescript", "ruby", "php",
	"c++", "c#", ".net", "rust", "scala", "kotlin", "swift", "perl",
	"sql", "nosql", "postgresql", "postgres", "mysql", "sqlite", "mongodb", "redis",
	"kafka", "rabbitmq", "elasticsearch", "graphql", "grpc", "rest",
	"docker", "kubernetes", "k8s", "terraform", "ansible", "helm", "linux",
	"aws", "gcp", "azure", "git", "jenkins",
	"react", "angular", "vue", "node.js", "django", "flask", "spring", "rails",
	"html", "css", "pandas", "numpy", "pytorch", "tensorflow", "spark", "hadoop",
	"excel", "tableau", "figma", "jira", "agile", "scrum",
	"teamwork", "leadership", "communication", "mentoring",
}
