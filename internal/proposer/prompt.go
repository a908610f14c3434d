package proposer

// systemPrompt frames the model as a task analyst.
const systemPrompt = `You analyze a user's working context and propose small, concrete tasks an assistant agent could do for them right now. You never execute tasks yourself.`

// proposalPrompt is the prompt template for task proposal.
const proposalPrompt = `Read the context below and propose up to %d helpful tasks.

Context:
%s

Return ONLY a JSON array of tasks with this exact structure (no other text):
[
  {
    "title": "Short imperative title",
    "description": "One or two sentences saying what the task does",
    "category": "research|analysis|documentation|development|automation|productivity|question",
    "priority": "high|medium|low",
    "keywords": ["search", "papers"]
  }
]

Guidelines:
- Each task must be doable by a single agent in one pass
- Prefer tasks grounded in what the context actually shows
- Keywords are short lowercase words that describe the capability needed
- Do not propose duplicate tasks`
