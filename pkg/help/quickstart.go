package help

const QuickstartYAML = `# review-harvester Quick Start

commands:
  harvest: |
    review-harvester harvest --company "Sushibox" --city "Ростов-на-Дону"

  limits: |
    review-harvester harvest --company "Sushibox" --max-branches 5 --max-reviews 100

  slow_network: |
    review-harvester harvest --company "Sushibox" --settle-delay 3s --stall-threshold 30

  list_runs: |
    review-harvester runs
    review-harvester runs --company Sushibox --limit 5

  run_details: |
    review-harvester run 5

  summary: |
    review-harvester summary 5
    review-harvester summary --format yaml 5

  replay: |
    # Re-extract a run from its saved branch pages (no browser)
    review-harvester replay --config selectors.yaml 5

exit_codes:
  0: "All branches collected"
  1: "Some branches skipped, or no reviews collected"
  2: "Fatal: bad configuration, browser failure, or no branches discovered"

key_files:
  - "harvest-results/index.yaml (all runs)"
  - "harvest-results/runs/2026-01-15-{id}/{company}_{city}_reviews_{YYYYMMDD_HHMM}.csv"
  - "harvest-results/runs/2026-01-15-{id}/{company}_{city}_summary.txt"
  - "harvest-results/runs/2026-01-15-{id}/summary.yaml"
  - "harvest-results/runs/2026-01-15-{id}/branches/*.html (rendered branch pages)"

environment:
  - "Every flag has a HARVEST_* variable, e.g. HARVEST_COMPANY, HARVEST_MAX_REVIEWS"
  - "A .env file in the working directory is loaded first"

selectors_file: |
  selectors:
    review_item: "div.business-review-view__info"
    body: "span.business-review-view__body-text"
`
